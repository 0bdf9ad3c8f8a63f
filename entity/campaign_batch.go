package entity

// CampaignBatch is the ledger entry of one completed run.
type CampaignBatch struct {
	ID              *uint64 `json:"id,omitempty"`
	RunID           *string `json:"run_id,omitempty"`
	UserID          *uint64 `json:"user_id,omitempty"`
	TemplateID      *uint64 `json:"template_id,omitempty"`
	TemplateName    *string `json:"template_name,omitempty"`
	TotalRecipients *uint64 `json:"total_recipients,omitempty"`
	SentCount       *uint64 `json:"sent_count,omitempty"`
	Timestamp       *uint64 `json:"timestamp,omitempty"`
}

func (e *CampaignBatch) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *CampaignBatch) GetRunID() string {
	if e != nil && e.RunID != nil {
		return *e.RunID
	}
	return ""
}

func (e *CampaignBatch) GetUserID() uint64 {
	if e != nil && e.UserID != nil {
		return *e.UserID
	}
	return 0
}

func (e *CampaignBatch) GetTotalRecipients() uint64 {
	if e != nil && e.TotalRecipients != nil {
		return *e.TotalRecipients
	}
	return 0
}

func (e *CampaignBatch) GetSentCount() uint64 {
	if e != nil && e.SentCount != nil {
		return *e.SentCount
	}
	return 0
}

// Stats are the cumulative counters of a user.
type Stats struct {
	UserID  *uint64 `json:"user_id,omitempty"`
	Sent    *uint64 `json:"sent,omitempty"`
	Replies *uint64 `json:"replies,omitempty"`
}

func (e *Stats) GetSent() uint64 {
	if e != nil && e.Sent != nil {
		return *e.Sent
	}
	return 0
}

func (e *Stats) GetReplies() uint64 {
	if e != nil && e.Replies != nil {
		return *e.Replies
	}
	return 0
}
