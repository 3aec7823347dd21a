//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"verity/internal/detection"
	"verity/internal/kyc/models"
	"verity/internal/kyc/store/postgres"
	"verity/internal/trust"
	id "verity/pkg/domain"
	"verity/pkg/platform/clientinfo"
	"verity/pkg/platform/sentinel"
	txcontext "verity/pkg/platform/tx"
	"verity/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "applications"))
}

func newApp(createdAt time.Time) *models.Application {
	return models.NewApplication(id.NewApplicationID(), createdAt.UTC().Truncate(time.Microsecond), clientinfo.Info{IP: "10.0.0.1"})
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	app := newApp(time.Now())
	app.PersonalInfo = &models.PersonalInfo{Name: "Ada Lovelace", DOB: "1996-01-10", Email: "ada@example.com"}
	app.Result = &trust.Result{
		CompositeScore: 41,
		Details:        []detection.Reason{{Rule: detection.RuleBotTiming, Severity: detection.SeverityMedium}},
	}

	s.Require().NoError(s.store.Create(ctx, app))
	s.ErrorIs(s.store.Create(ctx, app), sentinel.ErrConflict)

	got, err := s.store.FindByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal("Ada Lovelace", got.Name())
	s.Equal(41, got.RiskScore())
	s.True(app.CreatedAt.Equal(got.CreatedAt))

	var flags []string
	var score int
	err = s.postgres.DB.QueryRowContext(ctx,
		`SELECT composite_score, flags FROM applications WHERE id = $1`, app.ID.String(),
	).Scan(&score, pq.Array(&flags))
	s.Require().NoError(err)
	s.Equal(41, score)
	s.Equal([]string{detection.RuleFamily(detection.RuleBotTiming)}, flags)

	s.Require().NoError(s.store.Delete(ctx, app.ID))
	_, err = s.store.FindByID(ctx, app.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListNewestFirst() {
	ctx := context.Background()
	now := time.Now()
	older, newer := newApp(now.Add(-time.Hour)), newApp(now)
	s.Require().NoError(s.store.Create(ctx, older))
	s.Require().NoError(s.store.Create(ctx, newer))

	list, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(newer.ID, list[0].ID)
	s.Equal(older.ID, list[1].ID)
}

// TestConcurrentTransition verifies FOR UPDATE serializes the state machine
// so exactly one writer moves a pending application forward.
func (s *PostgresStoreSuite) TestConcurrentTransition() {
	ctx := context.Background()
	app := newApp(time.Now())
	s.Require().NoError(s.store.Create(ctx, app))

	const goroutines = 20
	var wg sync.WaitGroup
	var successCount atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, app.ID,
				func(a *models.Application) error {
					if a.Status != models.StatusPending {
						return sentinel.ErrInvalidState
					}
					return nil
				},
				func(a *models.Application) { a.Status = models.StatusProcessingInfo },
			)
			if err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	got, err := s.store.FindByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusProcessingInfo, got.Status)
}

func (s *PostgresStoreSuite) TestExecuteJoinsContextTransaction() {
	ctx := context.Background()
	app := newApp(time.Now())
	s.Require().NoError(s.store.Create(ctx, app))

	tx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)
	txCtx := txcontext.WithTx(ctx, tx)

	_, err = s.store.Execute(txCtx, app.ID, nil, func(a *models.Application) { a.Status = models.StatusProcessingInfo })
	s.Require().NoError(err)

	inside, err := s.store.FindByID(txCtx, app.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusProcessingInfo, inside.Status)

	s.Require().NoError(tx.Rollback())
	after, err := s.store.FindByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, after.Status)
}
