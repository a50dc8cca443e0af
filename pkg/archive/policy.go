package archive

import "time"

// RetryPolicy bounds an archive wait: at most MaxAttempts checks, Interval
// apart.
type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 100, Interval: 100 * time.Millisecond}
}

// Budget is the longest a wait under p may take.
func (p RetryPolicy) Budget() time.Duration {
	return time.Duration(p.attempts()) * p.Interval
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}
