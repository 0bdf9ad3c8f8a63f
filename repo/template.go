package repo

import (
	"codemailer/entity"
	"codemailer/pkg/errutil"
	"context"
	"encoding/json"
	"errors"
	"gorm.io/gorm"
)

const templateCachePrefix = "template"

var (
	ErrTemplateNotFound = errutil.NotFoundError(errors.New("template not found"))
)

type Template struct {
	ID          *uint64
	UserID      *uint64
	Name        *string
	Subject     *string
	Body        *string
	Attachments *string
	CreateTime  *uint64
	UpdateTime  *uint64
}

func (m *Template) TableName() string {
	return "template_tab"
}

func (m *Template) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

func (m *Template) GetAttachments() string {
	if m != nil && m.Attachments != nil {
		return *m.Attachments
	}
	return ""
}

type TemplateFilter struct {
	ID         *uint64
	UserID     *uint64
	Pagination *entity.Pagination
}

type TemplateRepo interface {
	Get(ctx context.Context, userID, templateID uint64) (*entity.Template, error)
	GetMany(ctx context.Context, f *TemplateFilter) ([]*entity.Template, *entity.Pagination, error)
	Create(ctx context.Context, tmpl *entity.Template) (uint64, error)
	// Update overwrites the name, subject, body and attachments of a
	// template owned by tmpl.UserID.
	Update(ctx context.Context, tmpl *entity.Template) error
	Delete(ctx context.Context, userID, templateID uint64) error
}

type templateRepo struct {
	baseRepo  BaseRepo
	baseCache BaseCache
}

func NewTemplateRepo(_ context.Context, baseRepo BaseRepo, baseCache BaseCache) TemplateRepo {
	return &templateRepo{
		baseRepo:  baseRepo,
		baseCache: baseCache,
	}
}

func (r *templateRepo) Get(ctx context.Context, userID, templateID uint64) (*entity.Template, error) {
	if v, ok := r.baseCache.Get(ctx, templateCachePrefix, userID, templateID); ok {
		return v.(*entity.Template), nil
	}

	tmpl := new(Template)
	if err := r.baseRepo.Get(ctx, tmpl, &Filter{
		Conditions: []*Condition{
			{Field: "id", Op: OpEq, Value: templateID, NextLogicalOp: And},
			{Field: "user_id", Op: OpEq, Value: userID},
		},
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	t, err := ToTemplate(tmpl)
	if err != nil {
		return nil, err
	}

	r.baseCache.Set(ctx, templateCachePrefix, userID, templateID, t)

	return t, nil
}

func (r *templateRepo) GetMany(ctx context.Context, f *TemplateFilter) ([]*entity.Template, *entity.Pagination, error) {
	res, pagination, err := r.baseRepo.GetMany(ctx, new(Template), &Filter{
		Conditions: []*Condition{
			{Field: "id", Op: OpEq, Value: f.ID, NextLogicalOp: And},
			{Field: "user_id", Op: OpEq, Value: f.UserID},
		},
		Pagination: f.Pagination,
	})
	if err != nil {
		return nil, nil, err
	}

	tmpls := make([]*entity.Template, len(res))
	for i, m := range res {
		tmpl, err := ToTemplate(m.(*Template))
		if err != nil {
			return nil, nil, err
		}
		tmpls[i] = tmpl
	}

	return tmpls, pagination, nil
}

func (r *templateRepo) Create(ctx context.Context, tmpl *entity.Template) (uint64, error) {
	m, err := ToTemplateModel(tmpl)
	if err != nil {
		return 0, err
	}

	if err := r.baseRepo.Create(ctx, m); err != nil {
		return 0, err
	}

	return m.GetID(), nil
}

func (r *templateRepo) Update(ctx context.Context, tmpl *entity.Template) error {
	m, err := ToTemplateModel(tmpl)
	if err != nil {
		return err
	}
	m.CreateTime = nil

	if err := r.baseRepo.RunTx(ctx, func(ctx context.Context) error {
		if err := r.getOwned(ctx, tmpl.GetUserID(), tmpl.GetID()); err != nil {
			return err
		}
		return r.baseRepo.Update(ctx, m)
	}); err != nil {
		return err
	}

	r.baseCache.Del(ctx, templateCachePrefix, tmpl.GetUserID(), tmpl.GetID())

	return nil
}

func (r *templateRepo) Delete(ctx context.Context, userID, templateID uint64) error {
	if err := r.baseRepo.RunTx(ctx, func(ctx context.Context) error {
		if err := r.getOwned(ctx, userID, templateID); err != nil {
			return err
		}
		return r.baseRepo.Delete(ctx, new(Template), &Filter{
			Conditions: []*Condition{
				{Field: "id", Op: OpEq, Value: templateID, NextLogicalOp: And},
				{Field: "user_id", Op: OpEq, Value: userID},
			},
		})
	}); err != nil {
		return err
	}

	r.baseCache.Del(ctx, templateCachePrefix, userID, templateID)

	return nil
}

func (r *templateRepo) getOwned(ctx context.Context, userID, templateID uint64) error {
	if err := r.baseRepo.Get(ctx, new(Template), &Filter{
		Conditions: []*Condition{
			{Field: "id", Op: OpEq, Value: templateID, NextLogicalOp: And},
			{Field: "user_id", Op: OpEq, Value: userID},
		},
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	return nil
}

func ToTemplateModel(tmpl *entity.Template) (*Template, error) {
	attachments := "[]"
	if len(tmpl.Attachments) > 0 {
		b, err := json.Marshal(tmpl.Attachments)
		if err != nil {
			return nil, err
		}
		attachments = string(b)
	}

	return &Template{
		ID:          tmpl.ID,
		UserID:      tmpl.UserID,
		Name:        tmpl.Name,
		Subject:     tmpl.Subject,
		Body:        tmpl.Body,
		Attachments: &attachments,
		CreateTime:  tmpl.CreateTime,
		UpdateTime:  tmpl.UpdateTime,
	}, nil
}

func ToTemplate(m *Template) (*entity.Template, error) {
	attachments := make([]*entity.Attachment, 0)
	if s := m.GetAttachments(); s != "" {
		if err := json.Unmarshal([]byte(s), &attachments); err != nil {
			return nil, err
		}
	}

	return &entity.Template{
		ID:          m.ID,
		UserID:      m.UserID,
		Name:        m.Name,
		Subject:     m.Subject,
		Body:        m.Body,
		Attachments: attachments,
		CreateTime:  m.CreateTime,
		UpdateTime:  m.UpdateTime,
	}, nil
}
