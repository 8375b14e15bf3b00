package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StakeWatch/internal/domain/models"
	domrepo "StakeWatch/internal/domain/repository"
	svccache "StakeWatch/internal/service/cache"
	"StakeWatch/internal/services/risk"
	applogger "StakeWatch/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return l
}

func stakePos(protocol, validator, operator, avs string, eth float64) models.StakingPosition {
	return models.StakingPosition{
		Protocol:    protocol,
		Validator:   validator,
		Operator:    operator,
		AVS:         avs,
		StakedValue: decimal.NewFromFloat(eth),
	}
}

type fakePositions struct {
	positions []models.StakingPosition
	err       error
	delay     time.Duration
	calls     atomic.Int64
}

func (f *fakePositions) GetPositions(ctx context.Context, userAddress string) ([]models.StakingPosition, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.positions, nil
}

type fakeMarket struct {
	validators map[string]models.ValidatorMetrics
	operators  map[string]models.OperatorMetrics
	avss       map[string]models.AVSMetrics
	liquidity  map[string]models.ProtocolLiquidity
	conditions models.MarketConditions

	conditionsErr error
}

func (f *fakeMarket) GetValidatorMetrics(ctx context.Context, addr string) (models.ValidatorMetrics, error) {
	vm, ok := f.validators[addr]
	if !ok {
		return models.ValidatorMetrics{}, domrepo.ErrDataUnavailable
	}
	return vm, nil
}

func (f *fakeMarket) GetOperatorMetrics(ctx context.Context, addr string) (models.OperatorMetrics, error) {
	om, ok := f.operators[addr]
	if !ok {
		return models.OperatorMetrics{}, domrepo.ErrDataUnavailable
	}
	return om, nil
}

func (f *fakeMarket) GetAVSMetrics(ctx context.Context, id string) (models.AVSMetrics, error) {
	am, ok := f.avss[id]
	if !ok {
		return models.AVSMetrics{}, domrepo.ErrDataUnavailable
	}
	return am, nil
}

func (f *fakeMarket) GetProtocolLiquidity(ctx context.Context, protocol string) (models.ProtocolLiquidity, error) {
	pl, ok := f.liquidity[protocol]
	if !ok {
		return models.ProtocolLiquidity{}, domrepo.ErrDataUnavailable
	}
	return pl, nil
}

func (f *fakeMarket) GetMarketConditions(ctx context.Context) (models.MarketConditions, error) {
	if f.conditionsErr != nil {
		return models.MarketConditions{}, f.conditionsErr
	}
	return f.conditions, nil
}

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
	evals  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{errors: map[string]int{}, evals: map[string]int{}}
}

func (m *fakeMetrics) RecordEvaluation(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evals[outcome]++
}
func (m *fakeMetrics) RecordComponentScore(component string, score float64) {}
func (m *fakeMetrics) RecordRiskScore(userAddress string, score float64)   {}
func (m *fakeMetrics) RecordCacheLookup(kind domrepo.MetricKind, result string) {}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}
func (m *fakeMetrics) RecordLatency(op string, seconds float64) {}

// healthyMarket returns a market fake covering one lido/0xval1/0xop1/eigenda
// position with unremarkable telemetry everywhere.
func healthyMarket() *fakeMarket {
	return &fakeMarket{
		validators: map[string]models.ValidatorMetrics{
			"0xval1": {
				Address:         "0xval1",
				AttestationRate: 0.99,
				UptimeHistory:   []float64{1.0, 1.0, 0.99},
				ClientDiversity: 0.7,
			},
		},
		operators: map[string]models.OperatorMetrics{
			"0xop1": {Address: "0xop1", ExperienceDays: 900},
		},
		avss: map[string]models.AVSMetrics{
			"eigenda": {ID: "eigenda", TotalStakeETH: 5_000_000, OperatorCount: 200},
		},
		liquidity: map[string]models.ProtocolLiquidity{
			"lido": {
				Protocol:           "lido",
				TotalStakedETH:     1_000_000,
				AvailableLiquidity: 900_000,
				DexDepthETH:        50_000,
				ExitQueueDays:      1,
				LargeHolderShare:   0.1,
			},
		},
		conditions: models.MarketConditions{
			Volatility30d:        0.3,
			RiskAssetCorrelation: 0.5,
			LiquidityRatio:       0.2,
			RegulatoryRisk:       0.2,
			RateLevel:            0.05,
			Sentiment:            models.SentimentNeutral,
		},
	}
}

func newTestEngine(t *testing.T, pp *fakePositions, mp *fakeMarket, opts ...EngineOption) *RiskEngine {
	t.Helper()
	return NewRiskEngine(pp, mp, risk.DefaultParams(), svccache.NewTTLCache(), newFakeMetrics(), testLogger(t), opts...)
}

func TestRiskEngine_SinglePositionPortfolio(t *testing.T) {
	pp := &fakePositions{positions: []models.StakingPosition{
		stakePos("lido", "0xval1", "0xop1", "eigenda", 32),
	}}
	engine := newTestEngine(t, pp, healthyMarket())

	m, err := engine.ComputeRiskMetrics(context.Background(), "0xuser")
	require.NoError(t, err)

	// Healthy telemetry keeps slashing and liquidity low; a single protocol,
	// operator and AVS still maxes out concentration.
	assert.Less(t, m.Breakdown.Slashing, 5.0)
	assert.Less(t, m.Breakdown.Liquidity, 5.0)
	assert.Equal(t, 25.0, m.Breakdown.Concentration)
	assert.InDelta(t, 8.8, m.Breakdown.Market, 1e-9)
	assert.InDelta(t, m.Breakdown.Sum(), m.OverallRiskScore, 1e-9)
	assert.Equal(t, models.RiskLevelMedium, m.RiskLevel)
	assert.Equal(t, 1.0, m.Metadata.DataQuality)
	assert.Empty(t, m.Metadata.Degraded)

	alerts, err := engine.ComputeRiskAlerts(context.Background(), "0xuser")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertConcentrationRisk, alerts[0].Type)
	assert.Equal(t, models.SeverityMedium, alerts[0].Severity)
}

func TestRiskEngine_RecentSlashingEventRaisesCriticalAlert(t *testing.T) {
	mp := healthyMarket()
	vm := mp.validators["0xval1"]
	vm.SlashingEvents = []models.SlashingEvent{
		{Validator: "0xval1", Operator: "0xop1", Reason: "double proposal", PenaltyETH: 1.1, OccurredAt: time.Now().UTC().Add(-24 * time.Hour)},
	}
	mp.validators["0xval1"] = vm
	pp := &fakePositions{positions: []models.StakingPosition{
		stakePos("lido", "0xval1", "0xop1", "eigenda", 32),
	}}
	engine := newTestEngine(t, pp, mp)

	alerts, err := engine.ComputeRiskAlerts(context.Background(), "0xuser")
	require.NoError(t, err)

	var slashing []models.RiskAlert
	for _, a := range alerts {
		if a.Type == models.AlertSlashingEvent {
			slashing = append(slashing, a)
		}
	}
	require.Len(t, slashing, 1)
	assert.Equal(t, models.SeverityCritical, slashing[0].Severity)
	assert.True(t, slashing[0].ActionRequired)
	assert.Equal(t, "0xval1", slashing[0].Details["validator"])
}

func TestRiskEngine_NoPositionDataIsFatal(t *testing.T) {
	pp := &fakePositions{err: errors.New("indexer 503")}
	engine := newTestEngine(t, pp, healthyMarket())

	_, err := engine.ComputeRiskMetrics(context.Background(), "0xuser")
	require.Error(t, err)
	assert.ErrorIs(t, err, domrepo.ErrNoPositions)
}

func TestRiskEngine_EmptyPortfolioScoresZero(t *testing.T) {
	pp := &fakePositions{}
	engine := newTestEngine(t, pp, healthyMarket())

	m, err := engine.ComputeRiskMetrics(context.Background(), "0xuser")
	require.NoError(t, err)
	assert.Zero(t, m.OverallRiskScore)
	assert.Equal(t, models.RiskLevelLow, m.RiskLevel)

	alerts, err := engine.ComputeRiskAlerts(context.Background(), "0xuser")
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestRiskEngine_MalformedPositionsAreRejectedIndividually(t *testing.T) {
	pp := &fakePositions{positions: []models.StakingPosition{
		stakePos("lido", "0xval1", "0xop1", "eigenda", 32),
		{Protocol: "", Validator: "0xval1", StakedValue: decimal.NewFromInt(1)}, // no protocol
		{Protocol: "lido", Validator: "0xval1", StakedValue: decimal.NewFromInt(-1)},
	}}
	engine := newTestEngine(t, pp, healthyMarket())

	m, err := engine.ComputeRiskMetrics(context.Background(), "0xuser")
	require.NoError(t, err)
	// Only the valid 32 ETH position participates.
	assert.Equal(t, 25.0, m.Breakdown.Concentration)
	assert.Equal(t, 1.0, m.Metadata.DataQuality)
}

func TestRiskEngine_DegradedMarketDataFailsSafeHigh(t *testing.T) {
	mp := healthyMarket()
	mp.conditionsErr = domrepo.ErrDataUnavailable
	pp := &fakePositions{positions: []models.StakingPosition{
		stakePos("lido", "0xval1", "0xop1", "eigenda", 32),
	}}
	engine := newTestEngine(t, pp, mp)

	m, err := engine.ComputeRiskMetrics(context.Background(), "0xuser")
	require.NoError(t, err)

	assert.Equal(t, 25.0, m.Breakdown.Market)
	assert.Contains(t, m.Metadata.Degraded, "market_conditions")
	assert.Less(t, m.Metadata.DataQuality, 1.0)
	assert.Greater(t, m.Metadata.Uncertainty, 0.0)
}

func TestRiskEngine_SecondCallServedFromCache(t *testing.T) {
	pp := &fakePositions{positions: []models.StakingPosition{
		stakePos("lido", "0xval1", "0xop1", "eigenda", 32),
	}}
	engine := newTestEngine(t, pp, healthyMarket())

	first, err := engine.ComputeRiskMetrics(context.Background(), "0xuser")
	require.NoError(t, err)
	second, err := engine.ComputeRiskMetrics(context.Background(), "0xuser")
	require.NoError(t, err)

	assert.Equal(t, int64(1), pp.calls.Load())
	assert.Equal(t, first.OverallRiskScore, second.OverallRiskScore)
	assert.Equal(t, first.LastUpdated, second.LastUpdated)
}

func TestRiskEngine_InvalidateForcesRecompute(t *testing.T) {
	pp := &fakePositions{positions: []models.StakingPosition{
		stakePos("lido", "0xval1", "0xop1", "eigenda", 32),
	}}
	engine := newTestEngine(t, pp, healthyMarket())

	_, err := engine.ComputeRiskMetrics(context.Background(), "0xuser")
	require.NoError(t, err)
	engine.Invalidate("0xuser")
	_, err = engine.ComputeRiskMetrics(context.Background(), "0xuser")
	require.NoError(t, err)

	assert.Equal(t, int64(2), pp.calls.Load())
}

func TestRiskEngine_ConcurrentRequestsShareOneEvaluation(t *testing.T) {
	pp := &fakePositions{
		positions: []models.StakingPosition{
			stakePos("lido", "0xval1", "0xop1", "eigenda", 32),
		},
		delay: 50 * time.Millisecond,
	}
	engine := newTestEngine(t, pp, healthyMarket())

	const callers = 8
	var wg sync.WaitGroup
	scores := make([]float64, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := engine.ComputeRiskMetrics(context.Background(), "0xuser")
			if assert.NoError(t, err) {
				scores[i] = m.OverallRiskScore
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), pp.calls.Load())
	for i := 1; i < callers; i++ {
		assert.Equal(t, scores[0], scores[i])
	}
}

func TestRiskEngine_RecommendActionUsesProfileThresholds(t *testing.T) {
	pp := &fakePositions{positions: []models.StakingPosition{
		stakePos("lido", "0xval1", "0xop1", "eigenda", 32),
	}}
	engine := newTestEngine(t, pp, healthyMarket())

	// Composite lands around 38; a 35/75/90 profile should warn, no more.
	profile := models.RiskProfile{
		MaxRiskScore:           100,
		WarningThreshold:       35,
		RebalanceThreshold:     75,
		EmergencyExitThreshold: 90,
	}
	action, m, err := engine.RecommendAction(context.Background(), "0xuser", profile)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.ActionWarn, action)
}
