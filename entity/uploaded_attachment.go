package entity

// UploadedAttachment is a file in the user's attachment library. Templates
// reference it by URL.
type UploadedAttachment struct {
	ID         *uint64 `json:"id,omitempty"`
	UserID     *uint64 `json:"user_id,omitempty"`
	Name       *string `json:"name,omitempty"`
	URL        *string `json:"url,omitempty"`
	FileID     *string `json:"file_id,omitempty"`
	CreateTime *uint64 `json:"create_time,omitempty"`
}

func (e *UploadedAttachment) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *UploadedAttachment) GetUserID() uint64 {
	if e != nil && e.UserID != nil {
		return *e.UserID
	}
	return 0
}

func (e *UploadedAttachment) GetName() string {
	if e != nil && e.Name != nil {
		return *e.Name
	}
	return ""
}

func (e *UploadedAttachment) GetURL() string {
	if e != nil && e.URL != nil {
		return *e.URL
	}
	return ""
}

func (e *UploadedAttachment) GetFileID() string {
	if e != nil && e.FileID != nil {
		return *e.FileID
	}
	return ""
}

// ToAttachment is the form a template stores.
func (e *UploadedAttachment) ToAttachment() *Attachment {
	return &Attachment{
		Name: e.Name,
		URL:  e.URL,
	}
}
