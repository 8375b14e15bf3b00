package models

import "time"

// Snapshot is the immutable view of one evaluation: positions and market data
// fetched exactly once, then passed by value to every calculator so scores and
// alerts observe identical inputs. A source that failed to load is listed in
// Degraded and simply absent from the maps.
type Snapshot struct {
	UserAddress string
	TakenAt     time.Time

	Positions  []StakingPosition
	Validators map[string]ValidatorMetrics
	Operators  map[string]OperatorMetrics
	AVSs       map[string]AVSMetrics
	Liquidity  map[string]ProtocolLiquidity
	Conditions MarketConditions

	// Degraded names data sources that could not be fetched, e.g.
	// "market_conditions" or "validator:0xabc".
	Degraded []string
}

// TotalStakedETH sums position values across the portfolio.
func (s Snapshot) TotalStakedETH() float64 {
	var total float64
	for _, p := range s.Positions {
		total += p.ValueETH()
	}
	return total
}

// HasValidator reports whether telemetry for the validator was obtained.
func (s Snapshot) HasValidator(addr string) bool {
	_, ok := s.Validators[addr]
	return ok
}

// RecentSlashingEvents returns slashing events across all fetched validators
// that occurred within the lookback window ending at the snapshot time.
func (s Snapshot) RecentSlashingEvents(lookback time.Duration) []SlashingEvent {
	cutoff := s.TakenAt.Add(-lookback)
	var out []SlashingEvent
	for _, vm := range s.Validators {
		for _, ev := range vm.SlashingEvents {
			if ev.OccurredAt.After(cutoff) && !ev.OccurredAt.After(s.TakenAt) {
				out = append(out, ev)
			}
		}
	}
	return out
}
