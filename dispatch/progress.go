package dispatch

import (
	"codemailer/entity"
	"fmt"
	"sync"
	"time"
)

// Progress holds the observable state of a run. Only the run goroutine
// writes to it; observers read copies through Snapshot.
type Progress struct {
	mu  sync.RWMutex
	run entity.DispatchRun
	// log lines in the order they happened
	log []string
}

func newProgress(run entity.DispatchRun) *Progress {
	run.State = entity.RunStatePending
	return &Progress{run: run}
}

func (p *Progress) start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.run.State = entity.RunStateRunning
}

// Apply folds the outcomes of one settled chunk into the counters. fraction is
// the share of the list covered once the chunk is done.
func (p *Progress) Apply(outcomes []entity.Outcome, fraction float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, o := range outcomes {
		switch o.Status {
		case entity.OutcomeSent:
			p.run.SentCount++
		case entity.OutcomeSkipped:
			p.run.ErrorCount++
			p.log = append(p.log, fmt.Sprintf("Skipped row %d: No email found", o.Row))
		default:
			p.run.ErrorCount++
			if o.Reason == entity.ReasonCancelled {
				p.log = append(p.log, fmt.Sprintf("Cancelled row %d: not sent", o.Row))
			} else {
				p.log = append(p.log, fmt.Sprintf("Failed to send to %s", o.Email))
			}
		}
	}

	p.run.ProgressPercent = fraction * 100
}

func (p *Progress) complete(cancelled bool, finalizeErr error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.run.State = entity.RunStateCompleted
	p.run.Cancelled = cancelled
	p.run.EndTime = uint64(time.Now().Unix())
	if finalizeErr != nil {
		p.run.FinalizeError = finalizeErr.Error()
	}
	if !cancelled {
		p.run.ProgressPercent = 100
	}
}

// Snapshot returns a copy of the run with the log most recent first.
func (p *Progress) Snapshot() *entity.DispatchRun {
	p.mu.RLock()
	defer p.mu.RUnlock()

	run := p.run
	run.RecentLog = make([]string, len(p.log))
	for i, line := range p.log {
		run.RecentLog[len(p.log)-1-i] = line
	}

	return &run
}
