package entity

import (
	"path"
	"strings"
)

type Attachment struct {
	Name *string `json:"name,omitempty"`
	URL  *string `json:"url,omitempty"`
}

func (e *Attachment) GetName() string {
	if e != nil && e.Name != nil {
		return *e.Name
	}
	return ""
}

func (e *Attachment) GetURL() string {
	if e != nil && e.URL != nil {
		return *e.URL
	}
	return ""
}

// FileName is the attachment name, falling back to the last URL segment.
func (e *Attachment) FileName() string {
	if name := strings.TrimSpace(e.GetName()); name != "" {
		return name
	}
	if u := e.GetURL(); u != "" {
		if i := strings.IndexAny(u, "?#"); i >= 0 {
			u = u[:i]
		}
		if base := path.Base(u); base != "." && base != "/" {
			return base
		}
	}
	return "attachment"
}

type Template struct {
	ID          *uint64       `json:"id,omitempty"`
	UserID      *uint64       `json:"user_id,omitempty"`
	Name        *string       `json:"name,omitempty"`
	Subject     *string       `json:"subject,omitempty"`
	Body        *string       `json:"body,omitempty"`
	Attachments []*Attachment `json:"attachments,omitempty"`
	CreateTime  *uint64       `json:"create_time,omitempty"`
	UpdateTime  *uint64       `json:"update_time,omitempty"`
}

func (e *Template) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *Template) GetUserID() uint64 {
	if e != nil && e.UserID != nil {
		return *e.UserID
	}
	return 0
}

func (e *Template) GetName() string {
	if e != nil && e.Name != nil {
		return *e.Name
	}
	return ""
}

func (e *Template) GetSubject() string {
	if e != nil && e.Subject != nil {
		return *e.Subject
	}
	return ""
}

func (e *Template) GetBody() string {
	if e != nil && e.Body != nil {
		return *e.Body
	}
	return ""
}

func (e *Template) GetAttachments() []*Attachment {
	if e != nil && e.Attachments != nil {
		return e.Attachments
	}
	return nil
}
