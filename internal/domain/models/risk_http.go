package models

// Requests for the risk HTTP endpoints. Defined in domain for consistency and reuse.

type RiskMetricsRequest struct {
	Address string `query:"address" json:"address" validate:"required,min=4"`
	Refresh bool   `query:"refresh" json:"refresh"`
}

type RiskAlertsRequest struct {
	Address string `query:"address" json:"address" validate:"required,min=4"`
}

type RiskActionRequest struct {
	Address   string  `query:"address" json:"address" validate:"required,min=4"`
	Warning   float64 `query:"warning" json:"warning" default:"70" validate:"gte=0,lte=100"`
	Rebalance float64 `query:"rebalance" json:"rebalance" default:"75" validate:"gte=0,lte=100"`
	Emergency float64 `query:"emergency" json:"emergency" default:"90" validate:"gte=0,lte=100"`
}

type RiskHistoryRequest struct {
	Address string `query:"address" json:"address" validate:"required,min=4"`
	Limit   int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}
