package risk

// HHI computes the Herfindahl-Hirschman index Σ (v_i/total)² over a
// distribution of staked value. An empty or zero-total distribution is
// defined as 0: no stake means no concentration risk.
func HHI(dist map[string]float64) float64 {
	var total float64
	for _, v := range dist {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return 0
	}
	var sum float64
	for _, v := range dist {
		if v <= 0 {
			continue
		}
		share := v / total
		sum += share * share
	}
	return sum
}

// TopShare returns the dominant key of a distribution and its share of the
// total. Returns ("", 0) for an empty or zero-total distribution.
func TopShare(dist map[string]float64) (string, float64) {
	var total float64
	for _, v := range dist {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return "", 0
	}
	var topKey string
	var topVal float64
	for k, v := range dist {
		if v > topVal || (v == topVal && (topKey == "" || k < topKey)) {
			topKey, topVal = k, v
		}
	}
	return topKey, topVal / total
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// capAt bounds a non-negative term to [0, cap].
func capAt(v, cap float64) float64 {
	if v < 0 {
		return 0
	}
	if v > cap {
		return cap
	}
	return v
}
