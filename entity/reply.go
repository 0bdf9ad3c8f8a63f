package entity

type ReplyStatus string

const (
	ReplyStatusPositive ReplyStatus = "Positive"
	ReplyStatusNegative ReplyStatus = "Negative"
	ReplyStatusNeutral  ReplyStatus = "Neutral"
)

// Reply is a response logged by the user against their outreach.
type Reply struct {
	ID          *uint64      `json:"id,omitempty"`
	UserID      *uint64      `json:"user_id,omitempty"`
	HRName      *string      `json:"hr_name,omitempty"`
	CompanyName *string      `json:"company_name,omitempty"`
	Status      *ReplyStatus `json:"status,omitempty"`
	Content     *string      `json:"content,omitempty"`
	// Date is the day the reply came in, as a unix timestamp.
	Date       *uint64 `json:"date,omitempty"`
	CreateTime *uint64 `json:"create_time,omitempty"`
}

func (e *Reply) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *Reply) GetUserID() uint64 {
	if e != nil && e.UserID != nil {
		return *e.UserID
	}
	return 0
}

func (e *Reply) GetStatus() ReplyStatus {
	if e != nil && e.Status != nil {
		return *e.Status
	}
	return ""
}

func (e *Reply) GetDate() uint64 {
	if e != nil && e.Date != nil {
		return *e.Date
	}
	return 0
}
