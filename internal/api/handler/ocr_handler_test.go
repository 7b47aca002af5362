package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jewan100/message-queue-study/internal/api/domain"
	"github.com/jewan100/message-queue-study/internal/api/dto"
	"github.com/jewan100/message-queue-study/internal/executor"
)

type fakeService struct {
	submitResp  *dto.JobCreateResponse
	submitErr   error
	statusResp  *dto.JobStatusResponse
	statusErr   error
	predictResp *dto.PredictResponse
	predictErr  error
}

func (f *fakeService) SubmitJob(_ context.Context, _ string) (*dto.JobCreateResponse, error) {
	return f.submitResp, f.submitErr
}

func (f *fakeService) GetJobStatus(_ context.Context, _ int64) (*dto.JobStatusResponse, error) {
	return f.statusResp, f.statusErr
}

func (f *fakeService) Predict(_ context.Context, _ string) (*dto.PredictResponse, error) {
	return f.predictResp, f.predictErr
}

func (f *fakeService) PredictSingle(_ context.Context, _ string) (*dto.PredictResponse, error) {
	return f.predictResp, f.predictErr
}

func setupRouter(t *testing.T, svc OcrService) (*gin.Engine, *executor.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pool := executor.NewPool(&executor.Config{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Workers: 2,
		Backlog: 10,
	})
	t.Cleanup(pool.Shutdown)

	h := NewOcrHandler(&Dependencies{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Service: svc,
		Pool:    pool,
	})

	r := gin.New()
	r.POST("/api/v1/ocr/jobs", h.SubmitJob)
	r.GET("/api/v1/ocr/jobs/:job_id", h.GetJobStatus)
	r.POST("/api/v1/ocr/predict", h.Predict)
	r.POST("/api/v1/ocr/predict/single", h.PredictSingle)
	r.POST("/api/v1/ocr/predict/async", h.PredictAsync)

	return r, pool
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitJob(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svc        *fakeService
		wantStatus int
	}{
		{
			name: "valid request",
			body: `{"pdf_name": "invoice.pdf"}`,
			svc: &fakeService{
				submitResp: &dto.JobCreateResponse{JobID: 1, Status: domain.JobStatusPending},
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing pdf_name",
			body:       `{}`,
			svc:        &fakeService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{`,
			svc:        &fakeService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "store failure",
			body:       `{"pdf_name": "invoice.pdf"}`,
			svc:        &fakeService{submitErr: errors.New("connection reset")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setupRouter(t, tt.svc)

			w := doJSON(r, http.MethodPost, "/api/v1/ocr/jobs", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusOK {
				var resp dto.JobCreateResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, int64(1), resp.JobID)
				assert.Equal(t, domain.JobStatusPending, resp.Status)
			}
		})
	}
}

func TestGetJobStatus(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		svc        *fakeService
		wantStatus int
	}{
		{
			name: "existing job",
			path: "/api/v1/ocr/jobs/42",
			svc: &fakeService{
				statusResp: &dto.JobStatusResponse{JobID: 42, Status: domain.JobStatusPending},
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown job",
			path:       "/api/v1/ocr/jobs/999",
			svc:        &fakeService{statusErr: domain.ErrJobNotFound},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "non-integer id",
			path:       "/api/v1/ocr/jobs/abc",
			svc:        &fakeService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "store failure",
			path:       "/api/v1/ocr/jobs/42",
			svc:        &fakeService{statusErr: errors.New("connection reset")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setupRouter(t, tt.svc)

			w := doJSON(r, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestPredict(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r, _ := setupRouter(t, &fakeService{
			predictResp: &dto.PredictResponse{Message: "ok", LatencyMs: 10},
		})

		w := doJSON(r, http.MethodPost, "/api/v1/ocr/predict", `{"pdf_name": "a.pdf"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.PredictResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Message)
		assert.Equal(t, float64(10), resp.LatencyMs)
	})

	t.Run("worker failure maps to bad gateway", func(t *testing.T) {
		r, _ := setupRouter(t, &fakeService{predictErr: errors.New("connection refused")})

		w := doJSON(r, http.MethodPost, "/api/v1/ocr/predict", `{"pdf_name": "a.pdf"}`)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestPredictSingle(t *testing.T) {
	r, _ := setupRouter(t, &fakeService{
		predictResp: &dto.PredictResponse{Message: "single", LatencyMs: 5},
	})

	w := doJSON(r, http.MethodPost, "/api/v1/ocr/predict/single", `{"pdf_name": "a.pdf"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.PredictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "single", resp.Message)
}

func TestPredictAsync(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r, _ := setupRouter(t, &fakeService{
			predictResp: &dto.PredictResponse{Message: "async-ok", LatencyMs: 7},
		})

		w := doJSON(r, http.MethodPost, "/api/v1/ocr/predict/async", `{"pdf_name": "a.pdf"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.PredictResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "async-ok", resp.Message)
	})

	t.Run("worker failure maps to bad gateway", func(t *testing.T) {
		r, _ := setupRouter(t, &fakeService{predictErr: errors.New("timeout")})

		w := doJSON(r, http.MethodPost, "/api/v1/ocr/predict/async", `{"pdf_name": "a.pdf"}`)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}
