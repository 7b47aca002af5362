package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/jewan100/message-queue-study/internal/api/domain"
	"github.com/jewan100/message-queue-study/internal/api/model"
	"github.com/jewan100/message-queue-study/shared/postgresql"
)

// JobTx is the view of a job transaction exposed to callers of RunInTx.
// Hooks registered with OnCommit run at most once, only after the
// transaction commits, never on rollback.
type JobTx interface {
	InsertJob(ctx context.Context, job *model.OcrJob) (int64, error)
	OnCommit(fn func())
}

// Storage handles all database operations for the API service
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return &Storage{
		db:     pg.GetDB(),
		logger: logger,
	}
}

// jobTx wraps a live sqlx transaction and collects after-commit hooks
type jobTx struct {
	tx    *sqlx.Tx
	hooks []func()
}

func (t *jobTx) InsertJob(ctx context.Context, job *model.OcrJob) (int64, error) {
	query := `
		INSERT INTO ocr_jobs (status, pdf_name, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := t.tx.QueryRowContext(ctx, query, job.Status, job.PdfName, job.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert job: %w", err)
	}

	return id, nil
}

func (t *jobTx) OnCommit(fn func()) {
	t.hooks = append(t.hooks, fn)
}

// RunInTx runs fn inside a database transaction. Any error from fn
// rolls the transaction back and discards registered hooks; after a
// successful commit the hooks run in registration order.
func (s *Storage) RunInTx(ctx context.Context, fn func(tx JobTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	jt := &jobTx{tx: tx}

	if err := fn(jt); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to rollback transaction",
				slog.Any("error", rbErr),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, hook := range jt.hooks {
		hook()
	}

	return nil
}

// InsertJob persists a job outside of any caller-managed transaction
func (s *Storage) InsertJob(ctx context.Context, job *model.OcrJob) (int64, error) {
	query := `
		INSERT INTO ocr_jobs (status, pdf_name, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query, job.Status, job.PdfName, job.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert job: %w", err)
	}

	return id, nil
}

// GetJobByID retrieves a job by its id
func (s *Storage) GetJobByID(ctx context.Context, id int64) (*model.OcrJob, error) {
	query := `
		SELECT id, status, pdf_name, created_at
		FROM ocr_jobs
		WHERE id = $1
	`

	var job model.OcrJob
	err := s.db.GetContext(ctx, &job, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}
