// Package seeder loads demo verification records into the in-memory store so
// the service is scannable out of the box without a database.
package seeder

import (
	"context"
	"fmt"
	"log/slog"

	"stagepass/internal/verify/models"
	"stagepass/internal/verify/store"
)

// Records returns the demo roster. One pending record per participant; the
// tokengen tool mints matching credentials.
func Records() []*models.VerificationRecord {
	return []*models.VerificationRecord{
		{
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
		{
			ParticipantID:   "101",
			EventID:         "7",
			Name:            "Mira Voss",
			SongTitle:       "Clair de Lune",
			CategoryID:      "1",
			CategoryName:    "Solo",
			SubCategoryID:   "2",
			SubCategoryName: "Piano",
			Status:          models.StatusPending,
		},
		{
			ParticipantID:   "102",
			EventID:         "7",
			Name:            "Jonas Brandt",
			SongTitle:       "Asturias",
			CategoryID:      "3",
			CategoryName:    "Strings",
			SubCategoryID:   "9",
			SubCategoryName: "Guitar",
			Status:          models.StatusPending,
		},
		{
			ParticipantID:   "103",
			EventID:         "8",
			Name:            "Elena Petrova",
			SongTitle:       "Nessun Dorma",
			CategoryID:      "5",
			CategoryName:    "Vocal",
			SubCategoryID:   "11",
			SubCategoryName: "Classical",
			Status:          models.StatusPending,
		},
		{
			// Pre-consumed record for demoing the replay path.
			ParticipantID:   "104",
			EventID:         "7",
			Name:            "Theo Lang",
			SongTitle:       "Bolero",
			CategoryID:      "4",
			CategoryName:    "Ensemble",
			SubCategoryID:   "10",
			SubCategoryName: "Percussion",
			Status:          models.StatusVerified,
		},
	}
}

// Seed inserts the demo roster into the store.
func Seed(ctx context.Context, s *store.InMemory, logger *slog.Logger) error {
	records := Records()
	for _, rec := range records {
		if err := s.Put(ctx, rec); err != nil {
			return fmt.Errorf("seeding record %s/%s: %w", rec.ParticipantID, rec.EventID, err)
		}
	}
	logger.Info("seeded demo verification records", "count", len(records))
	return nil
}
