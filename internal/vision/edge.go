package vision

// EdgeClassifier thresholds gradient magnitude into a binary edge decision.
// It is a pure function of its inputs; the squared magnitude is compared so
// no square root is needed.
type EdgeClassifier struct {
	Threshold int64
}

// Classify reports whether Gx^2 + Gy^2 exceeds the threshold.
func (e EdgeClassifier) Classify(gx, gy int32) bool {
	return int64(gx)*int64(gx)+int64(gy)*int64(gy) > e.Threshold
}
