// Package analytics holds the running-mean rule for per-question statistics.
// Every question store applies observations through Stats.Apply so the
// arithmetic lives in one place; the store provides the atomicity.
package analytics

import "assessment-service/internal/models"

// Observation is one graded answer to a question.
type Observation struct {
	Correct   bool    `json:"correct"`
	TimeTaken float64 `json:"time_taken"`
}

type Stats struct {
	UsageCount  int      `json:"usage_count"`
	SuccessRate *float64 `json:"success_rate,omitempty"`
	AverageTime *float64 `json:"average_time,omitempty"`
}

// Of reads the analytics fields of q.
func Of(q *models.Question) Stats {
	return Stats{
		UsageCount:  q.UsageCount,
		SuccessRate: copyFloat(q.SuccessRate),
		AverageTime: copyFloat(q.AverageTime),
	}
}

// WriteTo stores s into the analytics fields of q.
func (s Stats) WriteTo(q *models.Question) {
	q.UsageCount = s.UsageCount
	q.SuccessRate = copyFloat(s.SuccessRate)
	q.AverageTime = copyFloat(s.AverageTime)
}

// Apply folds o into s as an exact mean over all observations.
// An unset rate or time with a non-zero count is treated as a fresh start.
func (s Stats) Apply(o Observation) Stats {
	hit := 0.0
	if o.Correct {
		hit = 100
	}

	if s.UsageCount == 0 || s.SuccessRate == nil || s.AverageTime == nil {
		return Stats{
			UsageCount:  s.UsageCount + 1,
			SuccessRate: &hit,
			AverageTime: &o.TimeTaken,
		}
	}

	n := float64(s.UsageCount)
	rate := (*s.SuccessRate*n + hit) / (n + 1)
	avg := (*s.AverageTime*n + o.TimeTaken) / (n + 1)
	return Stats{
		UsageCount:  s.UsageCount + 1,
		SuccessRate: &rate,
		AverageTime: &avg,
	}
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
