package dispatch

import (
	"github.com/patrickmn/go-cache"
	"time"
)

// RunRegistry keeps runs observable. A run never expires while it is sending;
// once completed it stays for ttl.
type RunRegistry struct {
	runs *cache.Cache
	ttl  time.Duration
}

func NewRunRegistry(ttl time.Duration) *RunRegistry {
	return &RunRegistry{
		runs: cache.New(ttl, ttl/2+time.Minute),
		ttl:  ttl,
	}
}

func (r *RunRegistry) add(run *Run) {
	r.runs.Set(run.ID(), run, cache.NoExpiration)
}

func (r *RunRegistry) expire(run *Run) {
	r.runs.Set(run.ID(), run, r.ttl)
}

func (r *RunRegistry) Get(runID string) (*Run, bool) {
	v, ok := r.runs.Get(runID)
	if !ok {
		return nil, false
	}
	return v.(*Run), true
}

// Active lists the runs that have not completed yet.
func (r *RunRegistry) Active() []*Run {
	var runs []*Run
	for _, item := range r.runs.Items() {
		run := item.Object.(*Run)
		select {
		case <-run.Done():
		default:
			runs = append(runs, run)
		}
	}
	return runs
}
