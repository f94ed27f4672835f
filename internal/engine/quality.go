package engine

import "time"

// Adjustment is the resolution change requested by the quality controller.
type Adjustment int

const (
	// AdjustNone keeps the current resolution.
	AdjustNone Adjustment = iota
	// AdjustDecrease lowers the resolution one step.
	AdjustDecrease
	// AdjustIncrease raises the resolution one step.
	AdjustIncrease
)

// String returns a readable name for logs.
func (a Adjustment) String() string {
	switch a {
	case AdjustDecrease:
		return "decrease"
	case AdjustIncrease:
		return "increase"
	default:
		return "none"
	}
}

const (
	// qualityWindowSeconds is the length of the measurement window.
	qualityWindowSeconds = 10
	// qualityRunawayFactor triggers an early evaluation when the window's
	// accumulated time exceeds this many window budgets.
	qualityRunawayFactor = 1.5
	// qualityHighWater is the average frame cost, as a fraction of the
	// budget, above which the resolution is lowered.
	qualityHighWater = 0.9
	// qualityLowWater is the average frame cost, as a fraction of the
	// budget, below which the resolution is raised.
	qualityLowWater = 0.6
)

// QualityController turns measured frame costs into resolution adjustments.
// It is not safe for concurrent use; the engine calls it under its lock.
type QualityController struct {
	// budget is the time allotted to one frame.
	budget time.Duration
	// window is the number of frames per evaluation.
	window int
	// iterations is the number of frames observed since the last evaluation.
	iterations int
	// total is the accumulated frame cost since the last evaluation.
	total time.Duration
}

// NewQualityController creates a controller evaluating every ups*10 frames.
func NewQualityController(ups int, budget time.Duration) *QualityController {
	return &QualityController{
		budget: budget,
		window: max(ups, 1) * qualityWindowSeconds,
	}
}

// Observe records the cost of one frame. When the window is full, or the
// accumulated cost runs away, it evaluates the average and resets.
func (q *QualityController) Observe(elapsed time.Duration) Adjustment {
	q.iterations++
	q.total += elapsed

	runaway := float64(q.total) >= qualityRunawayFactor*float64(q.window)*float64(q.budget)
	if q.iterations < q.window && !runaway {
		return AdjustNone
	}

	average := float64(q.total) / float64(q.iterations)
	q.Reset()

	switch {
	case average > qualityHighWater*float64(q.budget):
		return AdjustDecrease
	case average < qualityLowWater*float64(q.budget):
		return AdjustIncrease
	default:
		return AdjustNone
	}
}

// Reset drops the partial window.
func (q *QualityController) Reset() {
	q.iterations = 0
	q.total = 0
}
