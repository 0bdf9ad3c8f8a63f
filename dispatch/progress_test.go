package dispatch

import (
	"codemailer/entity"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	p := newProgress(entity.DispatchRun{ID: "run-1", TotalRecipients: 5})
	assert.Equal(t, entity.RunStatePending, p.Snapshot().State)

	p.start()
	assert.Equal(t, entity.RunStateRunning, p.Snapshot().State)

	p.Apply([]entity.Outcome{
		{Row: 1, Email: "a@x.com", Status: entity.OutcomeSent},
		{Row: 2, Status: entity.OutcomeSkipped, Reason: entity.ReasonNoEmail},
		{Row: 3, Email: "c@x.com", Status: entity.OutcomeFailed, Reason: entity.ReasonTimeout},
	}, ProgressFraction(1, 3, 5))

	s := p.Snapshot()
	assert.Equal(t, 1, s.SentCount)
	assert.Equal(t, 2, s.ErrorCount)
	assert.InDelta(t, 60.0, s.ProgressPercent, 1e-9)
	assert.Equal(t, []string{"Failed to send to c@x.com", "Skipped row 2: No email found"}, s.RecentLog)

	// snapshots are copies
	s.RecentLog[0] = "changed"
	s.SentCount = 99
	assert.Equal(t, "Failed to send to c@x.com", p.Snapshot().RecentLog[0])
	assert.Equal(t, 1, p.Snapshot().SentCount)

	p.Apply([]entity.Outcome{
		{Row: 4, Email: "d@x.com", Status: entity.OutcomeSent},
		{Row: 5, Email: "e@x.com", Status: entity.OutcomeFailed},
	}, ProgressFraction(2, 3, 5))

	p.complete(false, nil)

	s = p.Snapshot()
	assert.True(t, s.IsCompleted())
	assert.Equal(t, 2, s.SentCount)
	assert.Equal(t, 3, s.ErrorCount)
	assert.Equal(t, 100.0, s.ProgressPercent)
	assert.Equal(t, "Failed to send to e@x.com", s.RecentLog[0])
	assert.NotZero(t, s.EndTime)
}

func TestProgress_CompleteWithFinalizeError(t *testing.T) {
	p := newProgress(entity.DispatchRun{ID: "run-1", TotalRecipients: 6})
	p.start()
	p.Apply([]entity.Outcome{{Row: 1, Email: "a@x.com", Status: entity.OutcomeSent}}, ProgressFraction(1, 3, 6))
	p.complete(true, &FinalizationError{RunID: "run-1", Err: assert.AnError})

	s := p.Snapshot()
	assert.True(t, s.Cancelled)
	assert.Equal(t, 50.0, s.ProgressPercent)
	assert.Contains(t, s.FinalizeError, "finalize run run-1")
}

func TestRunRegistry(t *testing.T) {
	registry := NewRunRegistry(time.Minute)
	run := &Run{id: "run-1", done: make(chan struct{}), cancelCh: make(chan struct{})}
	run.progress = newProgress(entity.DispatchRun{ID: "run-1"})

	registry.add(run)
	got, ok := registry.Get("run-1")
	assert.True(t, ok)
	assert.Equal(t, run, got)

	registry.expire(run)
	_, ok = registry.Get("run-1")
	assert.True(t, ok)

	_, ok = registry.Get("run-2")
	assert.False(t, ok)
}
