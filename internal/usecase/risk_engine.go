package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"StakeWatch/internal/domain/models"
	domrepo "StakeWatch/internal/domain/repository"
	domsvc "StakeWatch/internal/domain/service"
	svccache "StakeWatch/internal/service/cache"
	"StakeWatch/internal/services/risk"
	"StakeWatch/pkg/logger"
)

// RiskEngine orchestrates one evaluation: snapshot the user's positions and
// market data once, fan the four calculators out over it, aggregate, generate
// alerts, then cache and persist. Concurrent requests for the same user share
// a single in-flight computation.
type RiskEngine struct {
	positions domrepo.PositionProvider
	market    domrepo.MarketDataProvider

	slashing      domsvc.SlashingCalculator
	liquidity     domsvc.LiquidityCalculator
	concentration domsvc.ConcentrationCalculator
	marketCalc    domsvc.MarketCalculator
	agg           *risk.Aggregator
	alerts        *AlertGenerator
	policy        *ActionPolicy
	params        risk.Params

	cache    svccache.BytesCache
	cacheTTL time.Duration
	flight   singleflight.Group

	history   domrepo.RiskHistory
	publisher domrepo.AlertPublisher
	metrics   domrepo.Metrics
	log       *logger.Logger

	timeout      time.Duration
	fetchWorkers int
}

type EngineOption func(*RiskEngine)

// WithCacheTTL overrides the default result TTL.
func WithCacheTTL(ttl time.Duration) EngineOption {
	return func(e *RiskEngine) {
		if ttl > 0 {
			e.cacheTTL = ttl
		}
	}
}

// WithTimeout bounds one full evaluation including provider fetches.
func WithTimeout(d time.Duration) EngineOption {
	return func(e *RiskEngine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithHistory attaches the audit-trail store. Recording failures never fail
// an evaluation.
func WithHistory(h domrepo.RiskHistory) EngineOption {
	return func(e *RiskEngine) { e.history = h }
}

// WithAlertPublisher attaches the downstream alert broadcaster.
func WithAlertPublisher(p domrepo.AlertPublisher) EngineOption {
	return func(e *RiskEngine) { e.publisher = p }
}

// WithFetchWorkers bounds concurrent provider fetches per snapshot.
func WithFetchWorkers(n int) EngineOption {
	return func(e *RiskEngine) {
		if n > 0 {
			e.fetchWorkers = n
		}
	}
}

func NewRiskEngine(
	positions domrepo.PositionProvider,
	market domrepo.MarketDataProvider,
	params risk.Params,
	cache svccache.BytesCache,
	metrics domrepo.Metrics,
	log *logger.Logger,
	opts ...EngineOption,
) *RiskEngine {
	e := &RiskEngine{
		positions:     positions,
		market:        market,
		slashing:      risk.NewSlashingCalc(params),
		liquidity:     risk.NewLiquidityCalc(params),
		concentration: risk.NewConcentrationCalc(params),
		marketCalc:    risk.NewMarketCalc(params),
		agg:           risk.NewAggregator(params),
		alerts:        NewAlertGenerator(params),
		policy:        NewActionPolicy(),
		params:        params,
		cache:         cache,
		cacheTTL:      3 * time.Minute,
		metrics:       metrics,
		log:           log,
		timeout:       10 * time.Second,
		fetchWorkers:  8,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// evaluation bundles the two result families produced by one computation so
// both cache entries come from the same snapshot.
type evaluation struct {
	Metrics models.RiskMetrics `json:"metrics"`
	Alerts  []models.RiskAlert `json:"alerts"`
}

// ComputeRiskMetrics returns the user's full risk evaluation, from cache when
// fresh.
func (e *RiskEngine) ComputeRiskMetrics(ctx context.Context, userAddress string) (*models.RiskMetrics, error) {
	key := domrepo.CacheKey(domrepo.KindMetrics, userAddress)
	if b, ok := e.cacheGet(domrepo.KindMetrics, key); ok {
		var m models.RiskMetrics
		if err := json.Unmarshal(b, &m); err == nil {
			return &m, nil
		}
		e.metrics.RecordError("cache_decode")
	}

	ev, err := e.evaluateUser(ctx, userAddress)
	if err != nil {
		return nil, err
	}
	return &ev.Metrics, nil
}

// ComputeRiskAlerts returns the alerts from the user's current evaluation.
func (e *RiskEngine) ComputeRiskAlerts(ctx context.Context, userAddress string) ([]models.RiskAlert, error) {
	key := domrepo.CacheKey(domrepo.KindAlerts, userAddress)
	if b, ok := e.cacheGet(domrepo.KindAlerts, key); ok {
		var as []models.RiskAlert
		if err := json.Unmarshal(b, &as); err == nil {
			return as, nil
		}
		e.metrics.RecordError("cache_decode")
	}

	ev, err := e.evaluateUser(ctx, userAddress)
	if err != nil {
		return nil, err
	}
	return ev.Alerts, nil
}

// RecommendAction evaluates the user and maps the composite score through the
// profile thresholds. Exactly one action is returned.
func (e *RiskEngine) RecommendAction(ctx context.Context, userAddress string, profile models.RiskProfile) (models.Action, *models.RiskMetrics, error) {
	m, err := e.ComputeRiskMetrics(ctx, userAddress)
	if err != nil {
		return models.ActionNone, nil, err
	}
	return e.policy.Decide(profile, m.OverallRiskScore), m, nil
}

// History returns persisted evaluations for the user in [from, to].
func (e *RiskEngine) History(ctx context.Context, userAddress string, from, to time.Time, limit int) ([]models.RiskHistoryPoint, error) {
	if e.history == nil {
		return nil, fmt.Errorf("risk history not configured")
	}
	return e.history.Range(ctx, userAddress, from, to, limit)
}

// Invalidate drops the user's cached evaluations so the next request
// recomputes. Used by the position-update and slashing-event consumers.
func (e *RiskEngine) Invalidate(userAddress string) {
	for _, kind := range []domrepo.MetricKind{domrepo.KindMetrics, domrepo.KindAlerts} {
		if err := e.cache.DeleteBytes(domrepo.CacheKey(kind, userAddress)); err != nil {
			e.metrics.RecordError("cache_invalidate")
			e.log.Warn("cache invalidation failed",
				logger.String("user", userAddress),
				logger.Error(err))
		}
	}
}

func (e *RiskEngine) cacheGet(kind domrepo.MetricKind, key string) ([]byte, bool) {
	b, ok, err := e.cache.GetBytes(key)
	if err != nil {
		e.metrics.RecordError("cache_get")
		e.metrics.RecordCacheLookup(kind, "error")
		return nil, false
	}
	if !ok {
		e.metrics.RecordCacheLookup(kind, "miss")
		return nil, false
	}
	e.metrics.RecordCacheLookup(kind, "hit")
	return b, true
}

// evaluateUser deduplicates concurrent computations per user: every caller
// racing on the same key awaits the one in-flight evaluation.
func (e *RiskEngine) evaluateUser(ctx context.Context, userAddress string) (*evaluation, error) {
	v, err, _ := e.flight.Do(userAddress, func() (interface{}, error) {
		// Detach from the first caller's deadline; shared results should not
		// fail for everyone because one caller gave up early.
		evalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()

		start := time.Now()
		snap, err := e.takeSnapshot(evalCtx, userAddress)
		if err != nil {
			e.metrics.RecordEvaluation("error")
			return nil, err
		}

		ev := e.evaluate(snap)
		e.metrics.RecordEvaluation("ok")
		e.metrics.RecordLatency("evaluate", time.Since(start).Seconds())

		e.storeResults(evalCtx, ev)
		return ev, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*evaluation), nil
}

// takeSnapshot fetches positions plus every unique validator, operator, AVS
// and protocol referenced by them, in parallel. Only a total position failure
// is fatal; any other failed source is recorded in Degraded and scored
// fail-safe-high downstream.
func (e *RiskEngine) takeSnapshot(ctx context.Context, userAddress string) (models.Snapshot, error) {
	positions, err := e.positions.GetPositions(ctx, userAddress)
	if err != nil {
		e.metrics.RecordError("positions_fetch")
		return models.Snapshot{}, fmt.Errorf("%w: %s", domrepo.ErrNoPositions, userAddress)
	}

	snap := models.Snapshot{
		UserAddress: userAddress,
		TakenAt:     time.Now().UTC(),
		Validators:  make(map[string]models.ValidatorMetrics),
		Operators:   make(map[string]models.OperatorMetrics),
		AVSs:        make(map[string]models.AVSMetrics),
		Liquidity:   make(map[string]models.ProtocolLiquidity),
	}

	for _, p := range positions {
		if !p.Valid() {
			e.metrics.RecordError("invalid_position")
			e.log.Warn("rejecting malformed position",
				logger.String("user", userAddress),
				logger.String("protocol", p.Protocol),
				logger.String("validator", p.Validator))
			continue
		}
		snap.Positions = append(snap.Positions, p)
	}
	if len(snap.Positions) == 0 {
		return snap, nil
	}

	validators := make(map[string]bool)
	operators := make(map[string]bool)
	avss := make(map[string]bool)
	protocols := make(map[string]bool)
	for _, p := range snap.Positions {
		validators[p.Validator] = true
		if p.Operator != "" {
			operators[p.Operator] = true
		}
		if p.AVS != "" {
			avss[p.AVS] = true
		}
		protocols[p.Protocol] = true
	}

	var mu sync.Mutex
	degraded := func(name string) {
		mu.Lock()
		snap.Degraded = append(snap.Degraded, name)
		mu.Unlock()
		e.metrics.RecordError("market_data_fetch")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.fetchWorkers)

	g.Go(func() error {
		mc, err := e.market.GetMarketConditions(gctx)
		if err != nil {
			degraded(risk.DegradedMarketConditions)
			return nil
		}
		mu.Lock()
		snap.Conditions = mc
		mu.Unlock()
		return nil
	})
	for addr := range validators {
		g.Go(func() error {
			vm, err := e.market.GetValidatorMetrics(gctx, addr)
			if err != nil {
				degraded("validator:" + addr)
				return nil
			}
			mu.Lock()
			snap.Validators[addr] = vm
			mu.Unlock()
			return nil
		})
	}
	for addr := range operators {
		g.Go(func() error {
			om, err := e.market.GetOperatorMetrics(gctx, addr)
			if err != nil {
				degraded("operator:" + addr)
				return nil
			}
			mu.Lock()
			snap.Operators[addr] = om
			mu.Unlock()
			return nil
		})
	}
	for id := range avss {
		g.Go(func() error {
			am, err := e.market.GetAVSMetrics(gctx, id)
			if err != nil {
				degraded("avs:" + id)
				return nil
			}
			mu.Lock()
			snap.AVSs[id] = am
			mu.Unlock()
			return nil
		})
	}
	for proto := range protocols {
		g.Go(func() error {
			pl, err := e.market.GetProtocolLiquidity(gctx, proto)
			if err != nil {
				degraded("liquidity:" + proto)
				return nil
			}
			mu.Lock()
			snap.Liquidity[proto] = pl
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait() // workers never return errors; failures are degradations

	sort.Strings(snap.Degraded)
	return snap, nil
}

// evaluate runs the four calculators concurrently over one snapshot, then
// aggregates, classifies and generates alerts from the same inputs.
func (e *RiskEngine) evaluate(snap models.Snapshot) *evaluation {
	type result struct {
		name           string
		score          models.ComponentScore
		validatorRisks []models.ValidatorRisk
		stats          models.ConcentrationStats
	}

	ch := make(chan result, 4)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		score, vrs := e.slashing.Score(snap)
		ch <- result{name: "slashing", score: score, validatorRisks: vrs}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		ch <- result{name: "liquidity", score: e.liquidity.Score(snap)}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		score, stats := e.concentration.Score(snap)
		ch <- result{name: "concentration", score: score, stats: stats}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		ch <- result{name: "market", score: e.marketCalc.Score(snap)}
	}()

	go func() { wg.Wait(); close(ch) }()

	var breakdown models.ComponentBreakdown
	var validatorRisks []models.ValidatorRisk
	var stats models.ConcentrationStats
	var qualitySum float64

	for r := range ch {
		score := e.checkBound(r.name, r.score)
		qualitySum += score.Quality
		e.metrics.RecordComponentScore(r.name, score.Score)

		switch r.name {
		case "slashing":
			breakdown.Slashing = score.Score
			validatorRisks = r.validatorRisks
		case "liquidity":
			breakdown.Liquidity = score.Score
		case "concentration":
			breakdown.Concentration = score.Score
			stats = r.stats
		case "market":
			breakdown.Market = score.Score
		}
	}

	composite := e.agg.Compose(breakdown, snap.Conditions)
	quality := qualitySum / 4

	metrics := models.RiskMetrics{
		UserAddress:      snap.UserAddress,
		OverallRiskScore: composite,
		RiskLevel:        e.agg.Classify(composite),
		Breakdown:        breakdown,
		ValidatorRisks:   validatorRisks,
		AVSRisks:         e.slashing.AVSRisks(snap),
		Concentration:    stats,
		LastUpdated:      snap.TakenAt,
		Metadata: models.RiskMetadata{
			DataQuality: quality,
			Uncertainty: 1 - quality,
			Degraded:    snap.Degraded,
		},
	}
	e.metrics.RecordRiskScore(snap.UserAddress, composite)

	return &evaluation{
		Metrics: metrics,
		Alerts:  e.alerts.Generate(snap, validatorRisks, stats),
	}
}

// checkBound flags a calculator returning a score outside its declared bound.
// The value is still clamped for callers, but out-of-bound output is a
// calculation defect, not an input condition, so it is logged loudly.
func (e *RiskEngine) checkBound(name string, s models.ComponentScore) models.ComponentScore {
	if s.Score >= 0 && s.Score <= e.params.MaxComponent {
		return s
	}
	e.metrics.RecordError("component_bound")
	e.log.Error("component score out of bounds",
		logger.String("component", name),
		logger.Any("score", s.Score))
	if s.Score < 0 {
		s.Score = 0
	} else {
		s.Score = e.params.MaxComponent
	}
	return s
}

// storeResults writes both cache entries, appends the audit trail and
// publishes alerts. All three are best-effort; the evaluation has already
// succeeded.
func (e *RiskEngine) storeResults(ctx context.Context, ev *evaluation) {
	user := ev.Metrics.UserAddress

	if b, err := json.Marshal(ev.Metrics); err == nil {
		if err := e.cache.SetBytes(domrepo.CacheKey(domrepo.KindMetrics, user), b, e.cacheTTL); err != nil {
			e.metrics.RecordError("cache_set")
		}
	}
	if b, err := json.Marshal(ev.Alerts); err == nil {
		if err := e.cache.SetBytes(domrepo.CacheKey(domrepo.KindAlerts, user), b, e.cacheTTL); err != nil {
			e.metrics.RecordError("cache_set")
		}
	}

	if e.history != nil {
		if err := e.history.Record(ctx, &ev.Metrics); err != nil {
			e.metrics.RecordError("history_record")
			e.log.Warn("risk history record failed",
				logger.String("user", user),
				logger.Error(err))
		}
	}

	if e.publisher != nil && len(ev.Alerts) > 0 {
		if err := e.publisher.Publish(ctx, user, ev.Alerts); err != nil {
			e.metrics.RecordError("alert_publish")
			e.log.Warn("alert publish failed",
				logger.String("user", user),
				logger.Int("alerts", len(ev.Alerts)),
				logger.Error(err))
		}
	}
}
