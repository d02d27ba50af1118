package decode

import (
	"math"
	"time"
)

// nowFunc is overridable in tests that need deterministic CPR freshness
// windows; production code always uses wall-clock time.
var nowFunc = time.Now

func hypot(a, b float64) float64 {
	return math.Sqrt(a*a + b*b)
}

func atan2Deg(y, x float64) float64 {
	return math.Atan2(y, x) * 180.0 / math.Pi
}
