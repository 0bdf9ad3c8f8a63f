package handler

import (
	"codemailer/entity"
	"codemailer/pkg/errutil"
	"codemailer/pkg/goutil"
	"codemailer/pkg/placeholder"
	"codemailer/repo"
	"context"
	"errors"
	"github.com/rs/zerolog/log"
	"strings"
	"time"
)

var (
	ErrAttachmentURLRequired = errors.New("attachment url is required")
)

type TemplateHandler interface {
	CreateTemplate(ctx context.Context, req *CreateTemplateRequest, res *CreateTemplateResponse) error
	GetTemplate(ctx context.Context, req *GetTemplateRequest, res *GetTemplateResponse) error
	GetTemplates(ctx context.Context, req *GetTemplatesRequest, res *GetTemplatesResponse) error
	UpdateTemplate(ctx context.Context, req *UpdateTemplateRequest, res *UpdateTemplateResponse) error
	DeleteTemplate(ctx context.Context, req *DeleteTemplateRequest, res *DeleteTemplateResponse) error
}

type templateHandler struct {
	templateRepo repo.TemplateRepo
}

func NewTemplateHandler(templateRepo repo.TemplateRepo) TemplateHandler {
	return &templateHandler{
		templateRepo: templateRepo,
	}
}

type CreateTemplateRequest struct {
	ContextInfo

	Name        *string              `json:"name,omitempty" validate:"required,min=1,max=120"`
	Subject     *string              `json:"subject,omitempty" validate:"required,max=998"`
	Body        *string              `json:"body,omitempty" validate:"required"`
	Attachments []*entity.Attachment `json:"attachments,omitempty"`
}

func (req *CreateTemplateRequest) validate() error {
	if err := validateRequest(req); err != nil {
		return err
	}
	return validateAttachments(req.Attachments)
}

func validateAttachments(atts []*entity.Attachment) error {
	for _, att := range atts {
		if strings.TrimSpace(att.GetURL()) == "" {
			return errutil.ValidationError(ErrAttachmentURLRequired)
		}
	}
	return nil
}

func (req *CreateTemplateRequest) ToTemplate() *entity.Template {
	now := uint64(time.Now().Unix())
	return &entity.Template{
		UserID:      goutil.Uint64(req.GetUserID()),
		Name:        req.Name,
		Subject:     req.Subject,
		Body:        req.Body,
		Attachments: req.Attachments,
		CreateTime:  goutil.Uint64(now),
		UpdateTime:  goutil.Uint64(now),
	}
}

type CreateTemplateResponse struct {
	Template  *entity.Template `json:"template,omitempty"`
	Variables []string         `json:"variables"`
}

func (h *templateHandler) CreateTemplate(ctx context.Context, req *CreateTemplateRequest, res *CreateTemplateResponse) error {
	if err := req.validate(); err != nil {
		return err
	}

	tmpl := req.ToTemplate()
	id, err := h.templateRepo.Create(ctx, tmpl)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("create template failed: %v", err)
		return err
	}

	tmpl.ID = goutil.Uint64(id)

	res.Template = tmpl
	res.Variables = placeholder.TemplateVariables(tmpl.GetSubject(), tmpl.GetBody())

	return nil
}

type GetTemplateRequest struct {
	ContextInfo

	TemplateID *uint64 `json:"template_id,omitempty" schema:"template_id,omitempty" validate:"required,gt=0"`
}

func (req *GetTemplateRequest) GetTemplateID() uint64 {
	if req != nil && req.TemplateID != nil {
		return *req.TemplateID
	}
	return 0
}

type GetTemplateResponse struct {
	Template  *entity.Template `json:"template,omitempty"`
	Variables []string         `json:"variables"`
}

func (h *templateHandler) GetTemplate(ctx context.Context, req *GetTemplateRequest, res *GetTemplateResponse) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	tmpl, err := h.templateRepo.Get(ctx, req.GetUserID(), req.GetTemplateID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get template failed: %v, template_id: %d", err, req.GetTemplateID())
		return err
	}

	res.Template = tmpl
	res.Variables = placeholder.TemplateVariables(tmpl.GetSubject(), tmpl.GetBody())

	return nil
}

type GetTemplatesRequest struct {
	ContextInfo

	Pagination *entity.Pagination `json:"pagination,omitempty"`
}

type GetTemplatesResponse struct {
	Templates  []*entity.Template `json:"templates"`
	Pagination *entity.Pagination `json:"pagination,omitempty"`
}

func (h *templateHandler) GetTemplates(ctx context.Context, req *GetTemplatesRequest, res *GetTemplatesResponse) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	if req.Pagination == nil {
		req.Pagination = new(entity.Pagination)
	}
	if req.Pagination.Limit == nil || req.Pagination.GetLimit() > DefaultMaxLimit {
		req.Pagination.Limit = goutil.Uint32(DefaultMaxLimit)
	}

	tmpls, pagination, err := h.templateRepo.GetMany(ctx, &repo.TemplateFilter{
		UserID:     goutil.Uint64(req.GetUserID()),
		Pagination: req.Pagination,
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get templates failed: %v", err)
		return err
	}

	res.Templates = tmpls
	res.Pagination = pagination

	return nil
}

type UpdateTemplateRequest struct {
	ContextInfo

	TemplateID  *uint64              `json:"template_id,omitempty" validate:"required,gt=0"`
	Name        *string              `json:"name,omitempty" validate:"required,min=1,max=120"`
	Subject     *string              `json:"subject,omitempty" validate:"required,max=998"`
	Body        *string              `json:"body,omitempty" validate:"required"`
	Attachments []*entity.Attachment `json:"attachments,omitempty"`
}

func (req *UpdateTemplateRequest) GetTemplateID() uint64 {
	if req != nil && req.TemplateID != nil {
		return *req.TemplateID
	}
	return 0
}

func (req *UpdateTemplateRequest) validate() error {
	if err := validateRequest(req); err != nil {
		return err
	}
	return validateAttachments(req.Attachments)
}

// ToTemplate replaces the attachment list; an omitted list clears it.
func (req *UpdateTemplateRequest) ToTemplate() *entity.Template {
	attachments := req.Attachments
	if attachments == nil {
		attachments = make([]*entity.Attachment, 0)
	}

	return &entity.Template{
		ID:          req.TemplateID,
		UserID:      goutil.Uint64(req.GetUserID()),
		Name:        req.Name,
		Subject:     req.Subject,
		Body:        req.Body,
		Attachments: attachments,
		UpdateTime:  goutil.Uint64(uint64(time.Now().Unix())),
	}
}

type UpdateTemplateResponse struct {
	Template  *entity.Template `json:"template,omitempty"`
	Variables []string         `json:"variables"`
}

func (h *templateHandler) UpdateTemplate(ctx context.Context, req *UpdateTemplateRequest, res *UpdateTemplateResponse) error {
	if err := req.validate(); err != nil {
		return err
	}

	tmpl := req.ToTemplate()
	if err := h.templateRepo.Update(ctx, tmpl); err != nil {
		log.Ctx(ctx).Error().Msgf("update template failed: %v, template_id: %d", err, req.GetTemplateID())
		return err
	}

	res.Template = tmpl
	res.Variables = placeholder.TemplateVariables(tmpl.GetSubject(), tmpl.GetBody())

	return nil
}

type DeleteTemplateRequest struct {
	ContextInfo

	TemplateID *uint64 `json:"template_id,omitempty" validate:"required,gt=0"`
}

func (req *DeleteTemplateRequest) GetTemplateID() uint64 {
	if req != nil && req.TemplateID != nil {
		return *req.TemplateID
	}
	return 0
}

type DeleteTemplateResponse struct{}

func (h *templateHandler) DeleteTemplate(ctx context.Context, req *DeleteTemplateRequest, _ *DeleteTemplateResponse) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	if err := h.templateRepo.Delete(ctx, req.GetUserID(), req.GetTemplateID()); err != nil {
		log.Ctx(ctx).Error().Msgf("delete template failed: %v, template_id: %d", err, req.GetTemplateID())
		return err
	}

	return nil
}
