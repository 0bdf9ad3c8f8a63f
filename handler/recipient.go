package handler

import (
	"codemailer/entity"
	"codemailer/pkg/errutil"
	"codemailer/pkg/placeholder"
	"codemailer/pkg/recipientfile"
	"codemailer/pkg/router"
	"codemailer/repo"
	"context"
	"errors"
	"github.com/rs/zerolog/log"
)

const (
	MaxRecipientFileSize = 5 << 20
)

var (
	ErrInvalidSampleFormat = errors.New("format must be xlsx or json")
)

var recipientFileValidator = FileValidator(MaxRecipientFileSize, []string{"json", "xlsx", "xlsm", "csv"})

type RecipientHandler interface {
	UploadRecipients(ctx context.Context, req *UploadRecipientsRequest, res *UploadRecipientsResponse) error
	GetSampleFile(ctx context.Context, req *GetSampleFileRequest, res *GetSampleFileResponse) error
}

type recipientHandler struct {
	templateRepo repo.TemplateRepo
}

func NewRecipientHandler(templateRepo repo.TemplateRepo) RecipientHandler {
	return &recipientHandler{
		templateRepo: templateRepo,
	}
}

type UploadRecipientsRequest struct {
	ContextInfo

	TemplateID *uint64          `schema:"template_id,omitempty"`
	FileMeta   *router.FileMeta `schema:"-"`
}

func (req *UploadRecipientsRequest) GetTemplateID() uint64 {
	if req != nil && req.TemplateID != nil {
		return *req.TemplateID
	}
	return 0
}

type UploadRecipientsResponse struct {
	Recipients     []entity.Recipient `json:"recipients"`
	Count          int                `json:"count"`
	HasEmailColumn bool               `json:"has_email_column"`
	// MissingVariables lists template variables absent from the header row.
	MissingVariables []string `json:"missing_variables,omitempty"`
}

func (h *recipientHandler) UploadRecipients(ctx context.Context, req *UploadRecipientsRequest, res *UploadRecipientsResponse) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	if err := recipientFileValidator.Validate(req.FileMeta); err != nil {
		return err
	}

	recipients, err := recipientfile.Parse(req.FileMeta.FileName, req.FileMeta.Data)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("parse recipient file failed: %v, file: %s", err, req.FileMeta.FileName)
		return errutil.BadRequestError(err)
	}

	res.Recipients = recipients
	res.Count = len(recipients)
	res.HasEmailColumn = recipientfile.HasEmailColumn(recipients)

	if !res.HasEmailColumn {
		log.Ctx(ctx).Warn().Msgf("recipient file has no email column, file: %s", req.FileMeta.FileName)
	}

	if req.GetTemplateID() == 0 || len(recipients) == 0 {
		return nil
	}

	tmpl, err := h.templateRepo.Get(ctx, req.GetUserID(), req.GetTemplateID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get template failed: %v, template_id: %d", err, req.GetTemplateID())
		return err
	}

	for _, v := range placeholder.TemplateVariables(tmpl.GetSubject(), tmpl.GetBody()) {
		if _, ok := recipients[0].Lookup(v); !ok {
			res.MissingVariables = append(res.MissingVariables, v)
		}
	}

	return nil
}

type GetSampleFileRequest struct {
	ContextInfo

	TemplateID *uint64 `schema:"template_id,omitempty" validate:"required,gt=0"`
	Format     *string `schema:"format,omitempty"`
}

func (req *GetSampleFileRequest) GetTemplateID() uint64 {
	if req != nil && req.TemplateID != nil {
		return *req.TemplateID
	}
	return 0
}

// GetFormat defaults to xlsx.
func (req *GetSampleFileRequest) GetFormat() string {
	if req != nil && req.Format != nil && *req.Format != "" {
		return *req.Format
	}
	return recipientfile.FormatXLSX
}

type GetSampleFileResponse struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

func (h *recipientHandler) GetSampleFile(ctx context.Context, req *GetSampleFileRequest, res *GetSampleFileResponse) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	format := req.GetFormat()
	if format != recipientfile.FormatXLSX && format != recipientfile.FormatJSON {
		return errutil.ValidationError(ErrInvalidSampleFormat)
	}

	tmpl, err := h.templateRepo.Get(ctx, req.GetUserID(), req.GetTemplateID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get template failed: %v, template_id: %d", err, req.GetTemplateID())
		return err
	}

	content, contentType, err := recipientfile.BuildSample(placeholder.TemplateVariables(tmpl.GetSubject(), tmpl.GetBody()), format)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("build sample file failed: %v", err)
		return err
	}

	res.FileName = recipientfile.SampleFileName(tmpl.GetName(), format)
	res.ContentType = contentType
	res.Content = content

	return nil
}
