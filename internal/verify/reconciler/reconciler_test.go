package reconciler_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"stagepass/internal/verify/models"
	"stagepass/internal/verify/reconciler"
	"stagepass/internal/verify/store"
	"stagepass/pkg/testutil"
)

type ReconcilerSuite struct {
	suite.Suite
	store      *store.InMemory
	reconciler *reconciler.Reconciler
	ctx        context.Context
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerSuite))
}

func (s *ReconcilerSuite) SetupTest() {
	s.store = store.NewInMemory()
	r, err := reconciler.New(s.store)
	s.Require().NoError(err)
	s.reconciler = r
	s.ctx = context.Background()
}

func (s *ReconcilerSuite) seedRecord(status models.Status) *models.VerificationRecord {
	rec := testutil.NewRecordBuilder().WithStatus(status).Build()
	s.Require().NoError(s.store.Put(s.ctx, rec))
	return rec
}

func claimsFor(rec *models.VerificationRecord) models.IdentityClaims {
	return testutil.ClaimsFor(rec)
}

func (s *ReconcilerSuite) TestFirstMatchingScanVerifies() {
	rec := s.seedRecord(models.StatusPending)

	result := s.reconciler.Reconcile(s.ctx, claimsFor(rec))

	s.Equal(models.OutcomeVerified, result.Outcome)
	s.Equal(models.StatusVerified, result.RecordStatus)
	s.Require().NotNil(result.Matched)
	s.True(result.Matched.AllMatch())

	stored, err := s.store.FindRecord(s.ctx, rec.ParticipantID, rec.EventID)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, stored.Status)
}

func (s *ReconcilerSuite) TestReplayConsumesRecord() {
	rec := s.seedRecord(models.StatusVerified)

	result := s.reconciler.Reconcile(s.ctx, claimsFor(rec))

	s.Equal(models.OutcomeAlreadyUsed, result.Outcome)
	s.Equal(models.StatusExpired, result.RecordStatus)

	stored, err := s.store.FindRecord(s.ctx, rec.ParticipantID, rec.EventID)
	s.Require().NoError(err)
	s.Equal(models.StatusExpired, stored.Status)
}

func (s *ReconcilerSuite) TestExpiredRecordStaysExpired() {
	rec := s.seedRecord(models.StatusExpired)

	result := s.reconciler.Reconcile(s.ctx, claimsFor(rec))

	s.Equal(models.OutcomeExpired, result.Outcome)
	s.Equal(models.StatusExpired, result.RecordStatus)

	stored, err := s.store.FindRecord(s.ctx, rec.ParticipantID, rec.EventID)
	s.Require().NoError(err)
	s.Equal(models.StatusExpired, stored.Status)
}

func (s *ReconcilerSuite) TestFullScanSequence() {
	rec := s.seedRecord(models.StatusPending)
	ic := claimsFor(rec)

	first := s.reconciler.Reconcile(s.ctx, ic)
	second := s.reconciler.Reconcile(s.ctx, ic)
	third := s.reconciler.Reconcile(s.ctx, ic)

	s.Equal(models.OutcomeVerified, first.Outcome)
	s.Equal(models.OutcomeAlreadyUsed, second.Outcome)
	s.Equal(models.OutcomeExpired, third.Outcome)
}

func (s *ReconcilerSuite) TestMismatchRejectsWithoutMutation() {
	rec := s.seedRecord(models.StatusPending)

	ic := claimsFor(rec)
	ic.SongTitle = models.NewField("Wrong Song")

	result := s.reconciler.Reconcile(s.ctx, ic)

	s.Equal(models.OutcomeRejected, result.Outcome)
	s.Require().NotNil(result.Matched)
	s.False(result.Matched.SongTitle)
	s.True(result.Matched.ID)
	s.True(result.Matched.EventID)

	// The record keeps its single use.
	stored, err := s.store.FindRecord(s.ctx, rec.ParticipantID, rec.EventID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, stored.Status)
}

func (s *ReconcilerSuite) TestAbsentClaimNeverMatches() {
	rec := s.seedRecord(models.StatusPending)

	ic := claimsFor(rec)
	ic.CategoryName = models.Field{}

	result := s.reconciler.Reconcile(s.ctx, ic)

	s.Equal(models.OutcomeRejected, result.Outcome)
	s.Require().NotNil(result.Matched)
	s.False(result.Matched.CategoryName)
}

func (s *ReconcilerSuite) TestUnknownParticipantNotFound() {
	result := s.reconciler.Reconcile(s.ctx, models.IdentityClaims{
		ParticipantID: models.NewField("999"),
		EventID:       models.NewField("7"),
	})

	s.Equal(models.OutcomeNotFound, result.Outcome)
	s.Nil(result.Matched)
}

func (s *ReconcilerSuite) TestUnknownStatusRejects() {
	rec := s.seedRecord(models.Status("revoked"))

	result := s.reconciler.Reconcile(s.ctx, claimsFor(rec))

	s.Equal(models.OutcomeRejected, result.Outcome)
}

func (s *ReconcilerSuite) TestConcurrentScansAdmitExactlyOnce() {
	rec := s.seedRecord(models.StatusPending)
	ic := claimsFor(rec)

	const goroutines = 50
	outcomes := make([]models.Outcome, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			outcomes[idx] = s.reconciler.Reconcile(s.ctx, ic).Outcome
		}(i)
	}
	wg.Wait()

	verified := 0
	for _, o := range outcomes {
		switch o {
		case models.OutcomeVerified:
			verified++
		case models.OutcomeAlreadyUsed, models.OutcomeExpired:
		default:
			s.Failf("unexpected outcome", "got %s", o)
		}
	}
	s.Equal(1, verified, "exactly one scan may admit the credential")

	stored, err := s.store.FindRecord(s.ctx, rec.ParticipantID, rec.EventID)
	s.Require().NoError(err)
	s.NotEqual(models.StatusPending, stored.Status)
}

func (s *ReconcilerSuite) TestNewRequiresStore() {
	_, err := reconciler.New(nil)
	s.Error(err)
}
