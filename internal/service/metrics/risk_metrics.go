package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    RiskAPILatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "stakewatch",
            Subsystem: "risk_api",
            Name:      "latency_seconds",
            Help:      "Latency of risk endpoints",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"endpoint"},
    )

    RiskAPIErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "stakewatch",
            Subsystem: "risk_api",
            Name:      "errors_total",
            Help:      "Errors by risk endpoint",
        },
        []string{"endpoint"},
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(RiskAPILatency, RiskAPIErrors)
    })
}
