package entity

type SentEmail struct {
	ID         *uint64  `json:"id,omitempty"`
	UserID     *uint64  `json:"user_id,omitempty"`
	RunID      *string  `json:"run_id,omitempty"`
	To         *string  `json:"to,omitempty"`
	Subject    *string  `json:"subject,omitempty"`
	Html       *string  `json:"html,omitempty"`
	SharedWith []string `json:"shared_with,omitempty"`
	SentAt     *uint64  `json:"sent_at,omitempty"`
}

func (e *SentEmail) GetTo() string {
	if e != nil && e.To != nil {
		return *e.To
	}
	return ""
}
