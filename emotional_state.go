package companion

// SignificanceThreshold is the absolute stat-delta magnitude at which an
// interaction is considered emotionally significant and an additional
// emotion memory is recorded.
const SignificanceThreshold = 5.0

// ClassifyStatImpact derives a mood label from the sum of a stat delta.
// The same rule is used by the activity gate, the exercise manager and the
// mood tracker — the label vocabulary must stay consistent across call
// sites because DetermineTone keys off it.
func ClassifyStatImpact(delta StatDelta) string {
	total := delta.Total()
	switch {
	case total >= 10:
		return "very happy"
	case total >= 5:
		return "happy"
	case total >= 0:
		return "content"
	case total >= -5:
		return "tired"
	default:
		return "exhausted"
	}
}

// IsSignificant reports whether any single delta field reaches the
// significance threshold in magnitude.
func IsSignificant(delta StatDelta) bool {
	for _, v := range delta {
		if v >= SignificanceThreshold || v <= -SignificanceThreshold {
			return true
		}
	}
	return false
}
