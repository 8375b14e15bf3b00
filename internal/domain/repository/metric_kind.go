package repository

// MetricKind identifies one cached result family per user.
type MetricKind string

const (
	KindMetrics MetricKind = "metrics"
	KindAlerts  MetricKind = "alerts"
)

// IsValidMetricKind returns true if k is a supported metric kind.
func IsValidMetricKind(k MetricKind) bool {
	switch k {
	case KindMetrics, KindAlerts:
		return true
	default:
		return false
	}
}

// CacheKey builds the cache/singleflight key for a (user, metric) pair.
// At-most-one computation may be in flight per key.
func CacheKey(k MetricKind, userAddress string) string {
	return "risk:" + string(k) + ":" + userAddress
}

// CachePattern matches every cached entry of one kind, for invalidation.
func CachePattern(k MetricKind) string {
	return "risk:" + string(k) + ":*"
}
