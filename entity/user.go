package entity

import (
	"codemailer/pkg/goutil"
	"time"
)

type User struct {
	ID          *uint64 `json:"id,omitempty"`
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	AppPassword *string `json:"-"` // sealed, see pkg/secret
	CreateTime  *uint64 `json:"create_time,omitempty"`
	UpdateTime  *uint64 `json:"update_time,omitempty"`
}

func NewUser(email, displayName, sealedAppPassword string) *User {
	now := uint64(time.Now().Unix())
	return &User{
		Email:       goutil.String(email),
		DisplayName: goutil.String(displayName),
		AppPassword: goutil.String(sealedAppPassword),
		CreateTime:  goutil.Uint64(now),
		UpdateTime:  goutil.Uint64(now),
	}
}

func (e *User) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *User) GetEmail() string {
	if e != nil && e.Email != nil {
		return *e.Email
	}
	return ""
}

func (e *User) GetAppPassword() string {
	if e != nil && e.AppPassword != nil {
		return *e.AppPassword
	}
	return ""
}

func (e *User) HasAppPassword() bool {
	return e.GetAppPassword() != ""
}
