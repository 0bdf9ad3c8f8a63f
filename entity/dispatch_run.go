package entity

type RunState uint32

const (
	RunStateUnknown RunState = iota
	RunStatePending
	RunStateRunning
	RunStateCompleted
)

var RunStates = map[RunState]string{
	RunStatePending:   "pending",
	RunStateRunning:   "running",
	RunStateCompleted: "completed",
}

func (s RunState) String() string {
	if name, ok := RunStates[s]; ok {
		return name
	}
	return "unknown"
}

type OutcomeStatus uint32

const (
	OutcomeUnknown OutcomeStatus = iota
	OutcomeSent
	OutcomeSkipped
	OutcomeFailed
)

var OutcomeStatuses = map[OutcomeStatus]string{
	OutcomeSent:    "sent",
	OutcomeSkipped: "skipped",
	OutcomeFailed:  "failed",
}

func (s OutcomeStatus) String() string {
	if name, ok := OutcomeStatuses[s]; ok {
		return name
	}
	return "unknown"
}

const (
	ReasonTimeout    = "timeout"
	ReasonNoEmail    = "no email found"
	ReasonAttachment = "attachment unavailable"
	ReasonCancelled  = "cancelled"
)

// Outcome is the terminal result of one recipient in a run.
type Outcome struct {
	Row    int           `json:"row"`
	Email  string        `json:"email,omitempty"`
	Status OutcomeStatus `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

func (o Outcome) IsSent() bool {
	return o.Status == OutcomeSent
}

// DispatchRun is a point-in-time view of a run.
type DispatchRun struct {
	ID              string   `json:"id"`
	UserID          uint64   `json:"user_id"`
	TemplateID      uint64   `json:"template_id"`
	TemplateName    string   `json:"template_name"`
	State           RunState `json:"state"`
	TotalRecipients int      `json:"total_recipients"`
	SentCount       int      `json:"sent_count"`
	ErrorCount      int      `json:"error_count"`
	ProgressPercent float64  `json:"progress_percent"`
	RecentLog       []string `json:"recent_log"`
	Cancelled       bool     `json:"cancelled"`
	FinalizeError   string   `json:"finalize_error,omitempty"`
	StartTime       uint64   `json:"start_time"`
	EndTime         uint64   `json:"end_time,omitempty"`
}

func (e *DispatchRun) IsCompleted() bool {
	return e != nil && e.State == RunStateCompleted
}
