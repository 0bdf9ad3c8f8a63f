package repo

import (
	"codemailer/entity"
	"codemailer/pkg/errutil"
	"context"
	"errors"
	"gorm.io/gorm"
)

var (
	ErrAttachmentNotFound = errutil.NotFoundError(errors.New("attachment not found"))
)

type UploadedAttachment struct {
	ID         *uint64
	UserID     *uint64 `gorm:"index"`
	Name       *string
	URL        *string `gorm:"column:url"`
	FileID     *string
	CreateTime *uint64
}

func (m *UploadedAttachment) TableName() string {
	return "attachment_tab"
}

func (m *UploadedAttachment) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

type UploadedAttachmentRepo interface {
	Create(ctx context.Context, att *entity.UploadedAttachment) (uint64, error)
	Get(ctx context.Context, userID, attachmentID uint64) (*entity.UploadedAttachment, error)
	// GetMany lists a user's library, newest first.
	GetMany(ctx context.Context, userID uint64) ([]*entity.UploadedAttachment, error)
	Count(ctx context.Context, userID uint64) (uint64, error)
	Delete(ctx context.Context, userID, attachmentID uint64) error
}

type uploadedAttachmentRepo struct {
	baseRepo BaseRepo
}

func NewUploadedAttachmentRepo(_ context.Context, baseRepo BaseRepo) UploadedAttachmentRepo {
	return &uploadedAttachmentRepo{baseRepo: baseRepo}
}

func (r *uploadedAttachmentRepo) Create(ctx context.Context, att *entity.UploadedAttachment) (uint64, error) {
	m := ToUploadedAttachmentModel(att)
	if err := r.baseRepo.Create(ctx, m); err != nil {
		return 0, err
	}
	return m.GetID(), nil
}

func (r *uploadedAttachmentRepo) Get(ctx context.Context, userID, attachmentID uint64) (*entity.UploadedAttachment, error) {
	m := new(UploadedAttachment)
	if err := r.baseRepo.Get(ctx, m, r.ownedFilter(userID, attachmentID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttachmentNotFound
		}
		return nil, err
	}
	return ToUploadedAttachment(m), nil
}

func (r *uploadedAttachmentRepo) GetMany(ctx context.Context, userID uint64) ([]*entity.UploadedAttachment, error) {
	res, _, err := r.baseRepo.GetMany(ctx, new(UploadedAttachment), &Filter{
		Conditions: []*Condition{
			{Field: "user_id", Op: OpEq, Value: userID},
		},
		Order: "create_time DESC, id DESC",
	})
	if err != nil {
		return nil, err
	}

	atts := make([]*entity.UploadedAttachment, len(res))
	for i, m := range res {
		atts[i] = ToUploadedAttachment(m.(*UploadedAttachment))
	}

	return atts, nil
}

func (r *uploadedAttachmentRepo) Count(ctx context.Context, userID uint64) (uint64, error) {
	return r.baseRepo.Count(ctx, new(UploadedAttachment), &Filter{
		Conditions: []*Condition{
			{Field: "user_id", Op: OpEq, Value: userID},
		},
	})
}

func (r *uploadedAttachmentRepo) Delete(ctx context.Context, userID, attachmentID uint64) error {
	return r.baseRepo.Delete(ctx, new(UploadedAttachment), r.ownedFilter(userID, attachmentID))
}

func (r *uploadedAttachmentRepo) ownedFilter(userID, attachmentID uint64) *Filter {
	return &Filter{
		Conditions: []*Condition{
			{Field: "id", Op: OpEq, Value: attachmentID, NextLogicalOp: And},
			{Field: "user_id", Op: OpEq, Value: userID},
		},
	}
}

func ToUploadedAttachmentModel(att *entity.UploadedAttachment) *UploadedAttachment {
	return &UploadedAttachment{
		ID:         att.ID,
		UserID:     att.UserID,
		Name:       att.Name,
		URL:        att.URL,
		FileID:     att.FileID,
		CreateTime: att.CreateTime,
	}
}

func ToUploadedAttachment(m *UploadedAttachment) *entity.UploadedAttachment {
	return &entity.UploadedAttachment{
		ID:         m.ID,
		UserID:     m.UserID,
		Name:       m.Name,
		URL:        m.URL,
		FileID:     m.FileID,
		CreateTime: m.CreateTime,
	}
}
