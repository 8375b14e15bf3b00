package repository

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"StakeWatch/internal/domain/models"
	domrepo "StakeWatch/internal/domain/repository"
	"StakeWatch/internal/service/ratelimit"
	pkghttp "StakeWatch/pkg/http"
	applogger "StakeWatch/pkg/logger"
)

// IndexerClient talks to the restaking indexer REST API. It implements both
// PositionProvider and MarketDataProvider; every failure surfaces as
// ErrDataUnavailable so the engine can score the affected component
// fail-safe-high instead of aborting.
type IndexerClient struct {
	http    *pkghttp.Client
	baseURL string
	apiKey  string
	limiter *ratelimit.Limiter
	rateCap float64
	rateRPS float64
	l       *applogger.Logger
}

type IndexerOption func(*IndexerClient)

// WithRateLimit bounds outbound request rate (token bucket per endpoint
// family).
func WithRateLimit(capacity, refillPerSec float64) IndexerOption {
	return func(c *IndexerClient) {
		if capacity > 0 && refillPerSec > 0 {
			c.rateCap = capacity
			c.rateRPS = refillPerSec
		}
	}
}

func WithIndexerLogger(l *applogger.Logger) IndexerOption {
	return func(c *IndexerClient) { c.l = l }
}

func NewIndexerClient(baseURL, apiKey string, timeout time.Duration, opts ...IndexerOption) *IndexerClient {
	c := &IndexerClient{
		http:    pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		baseURL: baseURL,
		apiKey:  apiKey,
		limiter: ratelimit.New(),
		rateCap: 50,
		rateRPS: 25,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *IndexerClient) GetPositions(ctx context.Context, userAddress string) ([]models.StakingPosition, error) {
	var out struct {
		Positions []models.StakingPosition `json:"positions"`
	}
	path := fmt.Sprintf("/v1/users/%s/positions", url.PathEscape(userAddress))
	if err := c.get(ctx, "positions", path, &out); err != nil {
		return nil, err
	}
	return out.Positions, nil
}

func (c *IndexerClient) GetValidatorMetrics(ctx context.Context, validatorAddress string) (models.ValidatorMetrics, error) {
	var out models.ValidatorMetrics
	path := fmt.Sprintf("/v1/validators/%s", url.PathEscape(validatorAddress))
	err := c.get(ctx, "validators", path, &out)
	return out, err
}

func (c *IndexerClient) GetOperatorMetrics(ctx context.Context, operatorAddress string) (models.OperatorMetrics, error) {
	var out models.OperatorMetrics
	path := fmt.Sprintf("/v1/operators/%s", url.PathEscape(operatorAddress))
	err := c.get(ctx, "operators", path, &out)
	return out, err
}

func (c *IndexerClient) GetAVSMetrics(ctx context.Context, avsID string) (models.AVSMetrics, error) {
	var out models.AVSMetrics
	path := fmt.Sprintf("/v1/avs/%s", url.PathEscape(avsID))
	err := c.get(ctx, "avs", path, &out)
	return out, err
}

func (c *IndexerClient) GetProtocolLiquidity(ctx context.Context, protocol string) (models.ProtocolLiquidity, error) {
	var out models.ProtocolLiquidity
	path := fmt.Sprintf("/v1/protocols/%s/liquidity", url.PathEscape(protocol))
	err := c.get(ctx, "liquidity", path, &out)
	return out, err
}

// UsersForValidator returns the addresses of users staked with the validator.
// The event dispatcher uses it to invalidate affected evaluations after a
// slashing event.
func (c *IndexerClient) UsersForValidator(ctx context.Context, validatorAddress string) ([]string, error) {
	var out struct {
		Users []string `json:"users"`
	}
	path := fmt.Sprintf("/v1/validators/%s/stakers", url.PathEscape(validatorAddress))
	if err := c.get(ctx, "stakers", path, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *IndexerClient) GetMarketConditions(ctx context.Context) (models.MarketConditions, error) {
	var out models.MarketConditions
	err := c.get(ctx, "market", "/v1/market/conditions", &out)
	return out, err
}

func (c *IndexerClient) get(ctx context.Context, family, path string, dest interface{}) error {
	if !c.limiter.Allow("indexer:"+family, c.rateCap, c.rateRPS) {
		if c.l != nil {
			c.l.Warn("indexer rate limit exceeded", applogger.String("family", family))
		}
		return fmt.Errorf("%w: rate limited (%s)", domrepo.ErrDataUnavailable, family)
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["X-API-Key"] = c.apiKey
	}

	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodGet,
		URL:     c.baseURL + path,
		Headers: headers,
	}, dest)
	if err != nil {
		if c.l != nil {
			c.l.Warn("indexer request failed",
				applogger.String("path", path),
				applogger.Error(err))
		}
		return fmt.Errorf("%w: %v", domrepo.ErrDataUnavailable, err)
	}
	return nil
}

var (
	_ domrepo.PositionProvider   = (*IndexerClient)(nil)
	_ domrepo.MarketDataProvider = (*IndexerClient)(nil)
)
