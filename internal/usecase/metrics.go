package usecase

// MetricsSummary represents aggregated scan insights.
type MetricsSummary struct {
	AverageResponseTimeMs float64 `json:"average_response_time_ms"`
	ImageCount            float64 `json:"image_count"`
	TotalViolations       float64 `json:"total_violations"`
}

// AverageResponseTime returns the mean scan latency in milliseconds.
func (uc *ScanUseCase) AverageResponseTime() float64 {
	return uc.metrics.AverageResponseTimeMillis()
}

// ImageCount returns the number of images listed across all scans.
func (uc *ScanUseCase) ImageCount() float64 {
	return uc.metrics.ImageCount()
}

// TotalViolations returns the sum of violation counts across all scans.
func (uc *ScanUseCase) TotalViolations() float64 {
	return uc.metrics.TotalViolations()
}

// GetMetricsSummary collects the three scan metrics in one value.
func (uc *ScanUseCase) GetMetricsSummary() *MetricsSummary {
	return &MetricsSummary{
		AverageResponseTimeMs: uc.AverageResponseTime(),
		ImageCount:            uc.ImageCount(),
		TotalViolations:       uc.TotalViolations(),
	}
}
