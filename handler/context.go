package handler

type ContextInfo struct {
	UserID *uint64 `json:"user_id,omitempty" schema:"user_id,omitempty" validate:"required,gt=0"`
}

func (c *ContextInfo) GetUserID() uint64 {
	if c != nil && c.UserID != nil {
		return *c.UserID
	}
	return 0
}
