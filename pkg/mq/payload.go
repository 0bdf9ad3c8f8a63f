package mq

import (
	"codemailer/entity"
)

type Payload uint32

const (
	PayloadUnknown Payload = iota
	PayloadRunFinalized
	PayloadDispatchRequest
)

var Payloads = map[Payload]string{
	PayloadRunFinalized:    "run_finalized",
	PayloadDispatchRequest: "dispatch_request",
}

// RunFinalized announces a run whose ledger entry has been written.
type RunFinalized struct {
	RunID           *string `json:"run_id,omitempty"`
	UserID          *uint64 `json:"user_id,omitempty"`
	TemplateID      *uint64 `json:"template_id,omitempty"`
	TotalRecipients *int    `json:"total_recipients,omitempty"`
	SentCount       *int    `json:"sent_count,omitempty"`
	ErrorCount      *int    `json:"error_count,omitempty"`
	Cancelled       *bool   `json:"cancelled,omitempty"`
	EndTime         *uint64 `json:"end_time,omitempty"`
}

func (m *RunFinalized) GetRunID() string {
	if m != nil && m.RunID != nil {
		return *m.RunID
	}
	return ""
}

func (m *RunFinalized) GetSentCount() int {
	if m != nil && m.SentCount != nil {
		return *m.SentCount
	}
	return 0
}

// DispatchRequest asks a consumer to start a run.
type DispatchRequest struct {
	UserID           *uint64            `json:"user_id,omitempty"`
	TemplateID       *uint64            `json:"template_id,omitempty"`
	Recipients       []entity.Recipient `json:"recipients,omitempty"`
	ConcurrencyLimit *int               `json:"concurrency_limit,omitempty"`
	SharedWith       []string           `json:"shared_with,omitempty"`
}

func (m *DispatchRequest) GetUserID() uint64 {
	if m != nil && m.UserID != nil {
		return *m.UserID
	}
	return 0
}

func (m *DispatchRequest) GetTemplateID() uint64 {
	if m != nil && m.TemplateID != nil {
		return *m.TemplateID
	}
	return 0
}

func (m *DispatchRequest) GetConcurrencyLimit() int {
	if m != nil && m.ConcurrencyLimit != nil {
		return *m.ConcurrencyLimit
	}
	return 0
}
