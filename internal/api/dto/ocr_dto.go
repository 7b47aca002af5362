package dto

type OcrRequest struct {
	PdfName string `json:"pdf_name" binding:"required"`
}

type JobCreateResponse struct {
	JobID  int64  `json:"job_id"`
	Status string `json:"status"`
}

type JobStatusResponse struct {
	JobID  int64  `json:"job_id"`
	Status string `json:"status"`
}

// PredictResponse mirrors the OCR worker's predict response body
type PredictResponse struct {
	Message   string  `json:"message"`
	LatencyMs float64 `json:"latency_ms"`
}
