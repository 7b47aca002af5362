package handler

import (
	"context"
	"log/slog"

	"github.com/jewan100/message-queue-study/internal/api/dto"
	"github.com/jewan100/message-queue-study/internal/executor"
)

// OcrService is the service surface the handlers depend on
type OcrService interface {
	SubmitJob(ctx context.Context, pdfName string) (*dto.JobCreateResponse, error)
	GetJobStatus(ctx context.Context, id int64) (*dto.JobStatusResponse, error)
	Predict(ctx context.Context, pdfName string) (*dto.PredictResponse, error)
	PredictSingle(ctx context.Context, pdfName string) (*dto.PredictResponse, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger  *slog.Logger
	Service OcrService
	Pool    *executor.Pool
}

// OcrHandler handles OCR HTTP requests
type OcrHandler struct {
	logger  *slog.Logger
	service OcrService
	pool    *executor.Pool
}

// NewOcrHandler creates a new OcrHandler instance
func NewOcrHandler(deps *Dependencies) *OcrHandler {
	return &OcrHandler{
		logger:  deps.Logger,
		service: deps.Service,
		pool:    deps.Pool,
	}
}
