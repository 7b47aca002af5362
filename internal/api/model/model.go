package model

import "time"

// OcrJob is one OCR work item persisted in the ocr_jobs table
type OcrJob struct {
	ID        int64     `db:"id"`
	Status    string    `db:"status"`
	PdfName   string    `db:"pdf_name"`
	CreatedAt time.Time `db:"created_at"`
}
