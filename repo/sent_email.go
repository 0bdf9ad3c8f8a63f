package repo

import (
	"codemailer/entity"
	"context"
	"encoding/json"
)

type SentEmail struct {
	ID         *uint64
	UserID     *uint64
	RunID      *string
	To         *string `gorm:"column:to_email"`
	Subject    *string
	Html       *string
	SharedWith *string
	SentAt     *uint64
}

func (m *SentEmail) TableName() string {
	return "sent_email_tab"
}

type SentEmailRepo interface {
	Create(ctx context.Context, email *entity.SentEmail) error
}

type sentEmailRepo struct {
	baseRepo BaseRepo
}

func NewSentEmailRepo(_ context.Context, baseRepo BaseRepo) SentEmailRepo {
	return &sentEmailRepo{baseRepo: baseRepo}
}

func (r *sentEmailRepo) Create(ctx context.Context, email *entity.SentEmail) error {
	m, err := ToSentEmailModel(email)
	if err != nil {
		return err
	}
	return r.baseRepo.Create(ctx, m)
}

func ToSentEmailModel(email *entity.SentEmail) (*SentEmail, error) {
	sharedWith := email.SharedWith
	if sharedWith == nil {
		sharedWith = make([]string, 0)
	}

	b, err := json.Marshal(sharedWith)
	if err != nil {
		return nil, err
	}
	s := string(b)

	return &SentEmail{
		ID:         email.ID,
		UserID:     email.UserID,
		RunID:      email.RunID,
		To:         email.To,
		Subject:    email.Subject,
		Html:       email.Html,
		SharedWith: &s,
		SentAt:     email.SentAt,
	}, nil
}
