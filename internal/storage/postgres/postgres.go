package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"roomShare/internal/models"
	"roomShare/internal/queries"

	_ "github.com/lib/pq"
)

const driverName = "postgres"

// Storage journals every listing and rental submitted through the front end.
type Storage struct {
	Db  *sql.DB
	now func() time.Time
}

func New(ctx context.Context, dataSource string) (*Storage, error) {
	database, err := sql.Open(driverName, dataSource)
	if err != nil {
		return nil, err
	}

	return open(ctx, database)
}

// open pings database and creates the journal table, closing database if
// either step fails.
func open(ctx context.Context, database *sql.DB) (*Storage, error) {
	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, err
	}

	storage := NewWithDB(database)

	if err := storage.init(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("create journal table: %w", err)
	}

	return storage, nil
}

func NewWithDB(database *sql.DB) *Storage {
	return &Storage{Db: database, now: func() time.Time { return time.Now().UTC() }}
}

func (storage *Storage) init(ctx context.Context) error {
	_, err := storage.Db.ExecContext(ctx, queries.CreateTables)
	return err
}

func (storage *Storage) CreateSubmission(ctx context.Context, submission models.Submission) (models.Submission, error) {
	submission.Status = models.StatusPending
	submission.Caller = strings.ToLower(submission.Caller)
	submission.CreatedAt = storage.now()
	submission.UpdatedAt = submission.CreatedAt

	err := storage.Db.QueryRowContext(ctx, queries.InsertSubmission,
		submission.Kind, submission.Caller, submission.RoomId, submission.CheckIn, submission.CheckOut,
		submission.Payment, submission.Status, submission.CreatedAt).Scan(&submission.Id)
	if err != nil {
		return submission, fmt.Errorf("insert submission: %w", err)
	}

	return submission, nil
}

func (storage *Storage) FinishSubmission(ctx context.Context, id int64, status, txHash, failure string) error {
	result, err := storage.Db.ExecContext(ctx, queries.FinishSubmission, status, txHash, failure, storage.now(), id)
	if err != nil {
		return fmt.Errorf("finish submission %d: %w", id, err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("finish submission %d: %w", id, sql.ErrNoRows)
	}

	return nil
}

func (storage *Storage) GetSubmissionsByCaller(ctx context.Context, caller string) ([]models.Submission, error) {
	rows, err := storage.Db.QueryContext(ctx, queries.SubmissionsByCaller, strings.ToLower(caller))
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	submissions := []models.Submission{}

	for rows.Next() {
		var s models.Submission

		if err := rows.Scan(&s.Id, &s.Kind, &s.Caller, &s.RoomId, &s.CheckIn, &s.CheckOut, &s.Payment,
			&s.Status, &s.TxHash, &s.Failure, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}

		submissions = append(submissions, s)
	}

	return submissions, rows.Err()
}

// Nop stands in when no DATABASE_URL is configured.
type Nop struct{}

func (Nop) CreateSubmission(_ context.Context, submission models.Submission) (models.Submission, error) {
	submission.Status = models.StatusPending
	return submission, nil
}

func (Nop) FinishSubmission(context.Context, int64, string, string, string) error { return nil }

func (Nop) GetSubmissionsByCaller(context.Context, string) ([]models.Submission, error) {
	return []models.Submission{}, nil
}
