package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/ppe-scan/internal/detection"
	"github.com/example/ppe-scan/internal/logging"
	"github.com/example/ppe-scan/internal/storage"
	"github.com/example/ppe-scan/internal/usecase"
)

// Scanner is the use case surface the routes depend on.
type Scanner interface {
	ScanBucket(ctx context.Context, bucketName string) (*usecase.ScanResponse, error)
	AverageResponseTime() float64
	ImageCount() float64
	TotalViolations() float64
	GetMetricsSummary() *usecase.MetricsSummary
}

// RegisterRoutes wires the HTTP handlers to the Gin router. metricsHandler
// is mounted at /metrics when not nil.
func RegisterRoutes(router *gin.Engine, scanner Scanner, metricsHandler http.Handler) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/scan-ppe", func(c *gin.Context) {
		bucketName := c.Query("bucketName")
		if bucketName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bucketName is required"})
			return
		}

		resp, err := scanner.ScanBucket(c.Request.Context(), bucketName)
		if err != nil {
			c.JSON(statusFor(err), gin.H{
				"error":      err.Error(),
				"request_id": logging.RequestIDOf(err),
			})
			return
		}

		c.JSON(http.StatusOK, resp)
	})

	router.GET("/avg-response-time", func(c *gin.Context) {
		c.String(http.StatusOK, "The average response time: %s millisecond.", formatDecimal(scanner.AverageResponseTime()))
	})

	router.GET("/count-image", func(c *gin.Context) {
		c.String(http.StatusOK, "Total images thats processed: %s.", formatCount(scanner.ImageCount()))
	})

	router.GET("/total-violation", func(c *gin.Context) {
		c.String(http.StatusOK, "Total of violations: %s.", formatCount(scanner.TotalViolations()))
	})

	router.GET("/metrics/summary", func(c *gin.Context) {
		c.JSON(http.StatusOK, scanner.GetMetricsSummary())
	})

	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrBucketNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrAccessDenied), errors.Is(err, detection.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, detection.ErrThrottled):
		return http.StatusServiceUnavailable
	case errors.Is(err, detection.ErrInvalidImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// formatDecimal always keeps a fractional part, e.g. 12 -> "12.0".
func formatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
