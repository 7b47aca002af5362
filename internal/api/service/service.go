package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jewan100/message-queue-study/internal/api/domain"
	"github.com/jewan100/message-queue-study/internal/api/dto"
	"github.com/jewan100/message-queue-study/internal/api/model"
	"github.com/jewan100/message-queue-study/internal/api/queue"
	"github.com/jewan100/message-queue-study/internal/api/storage"
)

// JobStore is the persistence surface the service depends on
type JobStore interface {
	RunInTx(ctx context.Context, fn func(tx storage.JobTx) error) error
	InsertJob(ctx context.Context, job *model.OcrJob) (int64, error)
	GetJobByID(ctx context.Context, id int64) (*model.OcrJob, error)
}

// Predictor issues a synchronous prediction RPC to an OCR worker
type Predictor interface {
	Predict(ctx context.Context, pdfName string) (*dto.PredictResponse, error)
}

// Config holds service dependencies
type Config struct {
	Logger       *slog.Logger
	Store        JobStore
	Transport    queue.Transport // nil disables announcements
	Dispatcher   Predictor       // round-robin over the worker node list
	SingleClient Predictor       // fixed single-node endpoint
}

// OcrService coordinates job persistence, queue announcements, and
// worker dispatch
type OcrService struct {
	logger       *slog.Logger
	store        JobStore
	transport    queue.Transport
	dispatcher   Predictor
	singleClient Predictor
}

// NewOcrService creates a new OcrService
func NewOcrService(cfg *Config) *OcrService {
	return &OcrService{
		logger:       cfg.Logger,
		store:        cfg.Store,
		transport:    cfg.Transport,
		dispatcher:   cfg.Dispatcher,
		singleClient: cfg.SingleClient,
	}
}

// SubmitJob persists a PENDING job and announces it on the configured
// transport. The announcement is registered as an after-commit hook, so
// it is sent if and only if the creating transaction commits: a
// rollback never announces, and a consumer can never observe an
// announcement for a job that is not durably visible.
//
// A publish failure after the commit leaves the job persisted and is
// only logged; there is no outbox or retry here, so a committed job can
// miss its announcement. That gap is accepted.
func (s *OcrService) SubmitJob(ctx context.Context, pdfName string) (*dto.JobCreateResponse, error) {
	if s.transport == nil {
		return s.CreateJob(ctx, pdfName)
	}

	job := &model.OcrJob{
		Status:    domain.JobStatusPending,
		PdfName:   pdfName,
		CreatedAt: time.Now(),
	}

	err := s.store.RunInTx(ctx, func(tx storage.JobTx) error {
		id, err := tx.InsertJob(ctx, job)
		if err != nil {
			return err
		}
		job.ID = id

		tx.OnCommit(func() {
			if pubErr := s.transport.Publish(ctx, job.ID, job.PdfName); pubErr != nil {
				s.logger.Error("Failed to announce job after commit",
					slog.Int64("job_id", job.ID),
					slog.String("transport", s.transport.Name()),
					slog.Any("error", pubErr),
				)
			}
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit job: %w", err)
	}

	s.logger.Info("Job submitted",
		slog.Int64("job_id", job.ID),
		slog.String("pdf_name", job.PdfName),
		slog.String("transport", s.transport.Name()),
	)

	return &dto.JobCreateResponse{JobID: job.ID, Status: job.Status}, nil
}

// CreateJob persists a PENDING job with no queue announcement
func (s *OcrService) CreateJob(ctx context.Context, pdfName string) (*dto.JobCreateResponse, error) {
	job := &model.OcrJob{
		Status:    domain.JobStatusPending,
		PdfName:   pdfName,
		CreatedAt: time.Now(),
	}

	id, err := s.store.InsertJob(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	job.ID = id

	s.logger.Info("Job created",
		slog.Int64("job_id", job.ID),
		slog.String("pdf_name", job.PdfName),
	)

	return &dto.JobCreateResponse{JobID: job.ID, Status: job.Status}, nil
}

// GetJobStatus looks up a job's current status by id
func (s *OcrService) GetJobStatus(ctx context.Context, id int64) (*dto.JobStatusResponse, error) {
	job, err := s.store.GetJobByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.JobStatusResponse{JobID: job.ID, Status: job.Status}, nil
}

// Predict dispatches a synchronous prediction RPC round-robin across
// the worker node list
func (s *OcrService) Predict(ctx context.Context, pdfName string) (*dto.PredictResponse, error) {
	return s.dispatcher.Predict(ctx, pdfName)
}

// PredictSingle dispatches a synchronous prediction RPC to the fixed
// single-node endpoint
func (s *OcrService) PredictSingle(ctx context.Context, pdfName string) (*dto.PredictResponse, error) {
	return s.singleClient.Predict(ctx, pdfName)
}
