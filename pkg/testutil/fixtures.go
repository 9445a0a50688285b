package testutil

import (
	"stagepass/internal/verify/models"
)

// RecordBuilder provides a fluent interface for building test verification
// records. Defaults mirror the demo roster's canonical entry.
type RecordBuilder struct {
	rec *models.VerificationRecord
}

// NewRecordBuilder creates a RecordBuilder with sensible defaults.
func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{
		rec: &models.VerificationRecord{
			ParticipantID:   "42",
			EventID:         "7",
			Name:            "A",
			SongTitle:       "S",
			CategoryID:      "1",
			CategoryName:    "Solo",
			SubCategoryID:   "2",
			SubCategoryName: "Piano",
			Status:          models.StatusPending,
		},
	}
}

func (b *RecordBuilder) WithParticipant(id string) *RecordBuilder {
	b.rec.ParticipantID = id
	return b
}

func (b *RecordBuilder) WithEvent(id string) *RecordBuilder {
	b.rec.EventID = id
	return b
}

func (b *RecordBuilder) WithName(name string) *RecordBuilder {
	b.rec.Name = name
	return b
}

func (b *RecordBuilder) WithSongTitle(title string) *RecordBuilder {
	b.rec.SongTitle = title
	return b
}

func (b *RecordBuilder) WithStatus(status models.Status) *RecordBuilder {
	b.rec.Status = status
	return b
}

// Build returns the constructed record.
func (b *RecordBuilder) Build() *models.VerificationRecord {
	return b.rec
}

// ClaimsFor derives identity claims that match every field of the record.
func ClaimsFor(rec *models.VerificationRecord) models.IdentityClaims {
	return models.IdentityClaims{
		ParticipantID:   models.NewField(rec.ParticipantID),
		EventID:         models.NewField(rec.EventID),
		Name:            models.NewField(rec.Name),
		SongTitle:       models.NewField(rec.SongTitle),
		CategoryID:      models.NewField(rec.CategoryID),
		CategoryName:    models.NewField(rec.CategoryName),
		SubCategoryID:   models.NewField(rec.SubCategoryID),
		SubCategoryName: models.NewField(rec.SubCategoryName),
	}
}
