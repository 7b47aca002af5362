package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jewan100/message-queue-study/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "ocr-api-service",
		})
	})

	// Initialize OCR handler
	ocrHandler := handler.NewOcrHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		ocr := v1.Group("/ocr")
		{
			// POST /api/v1/ocr/jobs - Create a job and announce it on the queue
			ocr.POST("/jobs", ocrHandler.SubmitJob)

			// GET /api/v1/ocr/jobs/:job_id - Read back a job's status
			ocr.GET("/jobs/:job_id", ocrHandler.GetJobStatus)

			// POST /api/v1/ocr/predict - Synchronous round-robin prediction
			ocr.POST("/predict", ocrHandler.Predict)

			// POST /api/v1/ocr/predict/async - Prediction through the executor pool
			ocr.POST("/predict/async", ocrHandler.PredictAsync)

			// POST /api/v1/ocr/predict/single - Prediction against the fixed worker
			ocr.POST("/predict/single", ocrHandler.PredictSingle)
		}
	}

	return r
}
