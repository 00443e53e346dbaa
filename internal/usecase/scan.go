package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/ppe-scan/internal/detection"
	"github.com/example/ppe-scan/internal/logging"
	"github.com/example/ppe-scan/internal/metrics"
	"github.com/example/ppe-scan/internal/storage"
)

// ImageClassification is the verdict for one scanned image.
type ImageClassification struct {
	ImageKey    string `json:"imageKey"`
	PersonCount int    `json:"personCount"`
	IsViolation bool   `json:"isViolation"`
}

// ScanResponse holds the classifications of a bucket in listing order.
type ScanResponse struct {
	BucketName      string                `json:"bucketName"`
	Classifications []ImageClassification `json:"classifications"`
}

// Violations returns the number of classifications flagged as violations.
func (r *ScanResponse) Violations() int {
	n := 0
	for _, c := range r.Classifications {
		if c.IsViolation {
			n++
		}
	}
	return n
}

// Metrics is the sink the scan records into and the reader queries use.
type Metrics interface {
	metrics.Sink
	metrics.Reader
}

// ScanUseCase scans bucket contents for protective-equipment violations.
type ScanUseCase struct {
	lister   storage.Lister
	detector detection.Detector
	metrics  Metrics
	cache    Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Option customises a ScanUseCase.
type Option func(*ScanUseCase)

// WithDetectionCache caches detector output for ttl. A nil cache disables caching.
func WithDetectionCache(cache Cache, ttl time.Duration) Option {
	return func(uc *ScanUseCase) {
		uc.cache = cache
		uc.cacheTTL = ttl
	}
}

// NewScanUseCase constructs a new use case instance.
func NewScanUseCase(lister storage.Lister, detector detection.Detector, m Metrics, logger *zap.Logger, opts ...Option) *ScanUseCase {
	uc := &ScanUseCase{
		lister:   lister,
		detector: detector,
		metrics:  m,
		logger:   logger.Named("scan_usecase"),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ScanBucket lists bucketName and classifies every object in listing order.
//
// The image counter is incremented as soon as the listing returns, so a
// scan that later fails still counts its images. Latency and the violation
// count are recorded only when the whole bucket was scanned.
func (uc *ScanUseCase) ScanBucket(ctx context.Context, bucketName string) (*ScanResponse, error) {
	start := time.Now()
	requestID := uuid.NewString()
	opLogger := logging.WithBucket(uc.logger, "usecase.scan_bucket", requestID, bucketName)

	listing, err := uc.lister.ListObjects(ctx, bucketName)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.scan_bucket", requestID, err)
		opLogger.Error("failed to list bucket", zap.Error(wrapped))
		return nil, wrapped
	}
	if listing.Truncated {
		opLogger.Warn("bucket listing truncated, remaining objects are not scanned",
			zap.Int("listed", len(listing.Objects)))
	}

	uc.metrics.AddImages(len(listing.Objects))

	resp := &ScanResponse{
		BucketName:      bucketName,
		Classifications: make([]ImageClassification, 0, len(listing.Objects)),
	}
	for _, obj := range listing.Objects {
		opLogger.Info("scanning image", zap.String("key", obj.Key))

		result, err := uc.detect(ctx, requestID, bucketName, obj)
		if err != nil {
			wrapped := logging.NewOperationError("usecase.scan_bucket", requestID, err)
			opLogger.Error("protective equipment detection failed", zap.String("key", obj.Key), zap.Error(wrapped))
			return nil, wrapped
		}

		violation := detection.IsViolation(result)
		opLogger.Info("scanned image",
			zap.String("key", obj.Key),
			zap.Int("persons", result.PersonCount()),
			zap.Bool("violation", violation),
		)
		resp.Classifications = append(resp.Classifications, ImageClassification{
			ImageKey:    obj.Key,
			PersonCount: result.PersonCount(),
			IsViolation: violation,
		})
	}

	violations := resp.Violations()
	uc.metrics.RecordViolations(violations)
	elapsed := time.Since(start)
	uc.metrics.ObserveResponseTime(elapsed)

	opLogger.Info("bucket scan complete",
		zap.Int("images", len(resp.Classifications)),
		zap.Int("violations", violations),
		zap.Duration("elapsed", elapsed),
	)
	return resp, nil
}

func (uc *ScanUseCase) detect(ctx context.Context, requestID, bucket string, obj storage.Object) (*detection.Result, error) {
	if uc.cache == nil {
		return uc.detector.DetectProtectiveEquipment(ctx, detection.NewRequest(bucket, obj.Key))
	}

	key := detectionCacheKey(bucket, obj)
	if cached, ok := uc.loadDetection(ctx, requestID, key); ok {
		return cached, nil
	}

	result, err := uc.detector.DetectProtectiveEquipment(ctx, detection.NewRequest(bucket, obj.Key))
	if err != nil {
		return nil, err
	}
	uc.storeDetection(ctx, requestID, key, result)
	return result, nil
}
