// Package postgres persists applications in the applications table. The full
// application is kept as a JSONB payload; status, score and rule flags are
// projected into columns for dashboards and ad-hoc queries.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"verity/internal/detection"
	"verity/internal/kyc/models"
	id "verity/pkg/domain"
	"verity/pkg/platform/sentinel"
	txcontext "verity/pkg/platform/tx"
)

// Store implements the application store on PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, app *models.Application) error {
	row, err := toRow(app)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO applications (id, status, created_at, updated_at, name, composite_score, flags, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := s.conn(ctx).ExecContext(ctx, query, row.id, row.status, row.createdAt, row.updatedAt, row.name, row.score, pq.Array(row.flags), row.payload)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("application %s: %w", app.ID, sentinel.ErrConflict)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	return findByID(ctx, s.conn(ctx), appID, false)
}

func (s *Store) Update(ctx context.Context, app *models.Application) error {
	return update(ctx, s.conn(ctx), app)
}

func (s *Store) Delete(ctx context.Context, appID id.ApplicationID) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, uuid.UUID(appID))
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("application %s: %w", appID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*models.Application, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM applications ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []*models.Application
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		app, err := decode(payload)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return apps, nil
}

// Execute locks the row with SELECT ... FOR UPDATE for the duration of the
// read-validate-mutate-write cycle. A transaction already carried by ctx is
// joined rather than nested.
func (s *Store) Execute(ctx context.Context, appID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error) {
	var app *models.Application
	err := txcontext.Run(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		app, err = execute(ctx, tx, appID, validate, mutate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

func execute(ctx context.Context, tx *sql.Tx, appID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error) {
	app, err := findByID(ctx, tx, appID, true)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(app); err != nil {
			return nil, err
		}
	}
	mutate(app)
	if err := update(ctx, tx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// conn returns the transaction carried by ctx, or the pool.
func (s *Store) conn(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func findByID(ctx context.Context, q querier, appID id.ApplicationID, forUpdate bool) (*models.Application, error) {
	query := `SELECT payload FROM applications WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var payload []byte
	err := q.QueryRowContext(ctx, query, uuid.UUID(appID)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application %s: %w", appID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find application: %w", err)
	}
	return decode(payload)
}

func update(ctx context.Context, q querier, app *models.Application) error {
	row, err := toRow(app)
	if err != nil {
		return err
	}
	query := `
		UPDATE applications
		SET status = $2, updated_at = $3, name = $4, composite_score = $5, flags = $6, payload = $7
		WHERE id = $1
	`
	res, err := q.ExecContext(ctx, query, row.id, row.status, row.updatedAt, row.name, row.score, pq.Array(row.flags), row.payload)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("application %s: %w", app.ID, sentinel.ErrNotFound)
	}
	return nil
}

type appRow struct {
	id        uuid.UUID
	status    string
	createdAt time.Time
	updatedAt time.Time
	name      sql.NullString
	score     sql.NullInt32
	flags     []string
	payload   []byte
}

func toRow(app *models.Application) (appRow, error) {
	payload, err := json.Marshal(app)
	if err != nil {
		return appRow{}, fmt.Errorf("encode application: %w", err)
	}
	row := appRow{
		id:        uuid.UUID(app.ID),
		status:    string(app.Status),
		createdAt: app.CreatedAt,
		updatedAt: app.UpdatedAt,
		flags:     []string{},
		payload:   payload,
	}
	if name := app.Name(); name != "" {
		row.name = sql.NullString{String: name, Valid: true}
	}
	if app.Result != nil {
		row.score = sql.NullInt32{Int32: int32(app.Result.CompositeScore), Valid: true}
		for _, reason := range app.Result.Details {
			row.flags = append(row.flags, detection.RuleFamily(reason.Rule))
		}
	}
	return row, nil
}

func decode(payload []byte) (*models.Application, error) {
	var app models.Application
	if err := json.Unmarshal(payload, &app); err != nil {
		return nil, fmt.Errorf("decode application: %w", err)
	}
	if app.Documents == nil {
		app.Documents = []models.Document{}
	}
	return &app, nil
}
