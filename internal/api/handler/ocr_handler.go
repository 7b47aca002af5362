package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jewan100/message-queue-study/internal/api/domain"
	"github.com/jewan100/message-queue-study/internal/api/dto"
	"github.com/jewan100/message-queue-study/internal/executor"
)

// SubmitJob handles POST /api/v1/ocr/jobs
// Persists a job record and announces it on the configured transport
// once the creating transaction commits
func (h *OcrHandler) SubmitJob(c *gin.Context) {
	var req dto.OcrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	resp, err := h.service.SubmitJob(c.Request.Context(), req.PdfName)
	if err != nil {
		h.logger.Error("Failed to submit job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to submit job",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetJobStatus handles GET /api/v1/ocr/jobs/:job_id
func (h *OcrHandler) GetJobStatus(c *gin.Context) {
	jobID, err := strconv.ParseInt(c.Param("job_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be an integer",
		})
		return
	}

	resp, err := h.service.GetJobStatus(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}

		h.logger.Error("Failed to get job status",
			slog.Int64("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job status",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Predict handles POST /api/v1/ocr/predict
// Issues a synchronous prediction RPC round-robin across worker nodes
func (h *OcrHandler) Predict(c *gin.Context) {
	var req dto.OcrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	resp, err := h.service.Predict(c.Request.Context(), req.PdfName)
	if err != nil {
		h.logger.Error("Predict call failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "OCR worker call failed",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PredictSingle handles POST /api/v1/ocr/predict/single
// Same RPC against the fixed single-node endpoint
func (h *OcrHandler) PredictSingle(c *gin.Context) {
	var req dto.OcrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	resp, err := h.service.PredictSingle(c.Request.Context(), req.PdfName)
	if err != nil {
		h.logger.Error("Predict call failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "OCR worker call failed",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PredictAsync handles POST /api/v1/ocr/predict/async
// Hands the same synchronous predict logic to the executor pool and
// waits on the returned future
func (h *OcrHandler) PredictAsync(c *gin.Context) {
	var req dto.OcrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	ctx := c.Request.Context()

	future, err := h.pool.Submit(func() (interface{}, error) {
		return h.service.Predict(ctx, req.PdfName)
	})
	if err != nil {
		if errors.Is(err, executor.ErrBacklogFull) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Too many queued requests",
			})
			return
		}

		h.logger.Error("Failed to submit predict task", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to submit predict task",
		})
		return
	}

	value, err := future.Wait(ctx)
	if err != nil {
		h.logger.Error("Async predict failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "OCR worker call failed",
		})
		return
	}

	c.JSON(http.StatusOK, value.(*dto.PredictResponse))
}
