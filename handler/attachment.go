package handler

import (
	"codemailer/dep"
	"codemailer/entity"
	"codemailer/pkg/errutil"
	"codemailer/pkg/goutil"
	"codemailer/pkg/router"
	"codemailer/repo"
	"context"
	"errors"
	"github.com/rs/zerolog/log"
	"time"
)

const (
	MaxAttachmentFileSize = 10 << 20
	MaxLibraryAttachments = 3
)

var (
	ErrFileStoreDisabled  = errors.New("attachment storage is not configured")
	ErrAttachmentLimitHit = errors.New("attachment library is full")
)

var attachmentFileValidator = FileValidator(MaxAttachmentFileSize, nil)

// FileStore keeps uploaded files by id.
type FileStore interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
	Delete(ctx context.Context, fileID string) error
}

type AttachmentHandler interface {
	UploadAttachment(ctx context.Context, req *UploadAttachmentRequest, res *UploadAttachmentResponse) error
	GetAttachments(ctx context.Context, req *GetAttachmentsRequest, res *GetAttachmentsResponse) error
	DeleteAttachment(ctx context.Context, req *DeleteAttachmentRequest, res *DeleteAttachmentResponse) error
}

type attachmentHandler struct {
	files          FileStore
	attachmentRepo repo.UploadedAttachmentRepo
}

// NewAttachmentHandler accepts a nil file store, in which case uploads are
// rejected while the library can still be listed and pruned.
func NewAttachmentHandler(files FileStore, attachmentRepo repo.UploadedAttachmentRepo) AttachmentHandler {
	return &attachmentHandler{
		files:          files,
		attachmentRepo: attachmentRepo,
	}
}

type UploadAttachmentRequest struct {
	ContextInfo

	FileMeta *router.FileMeta `schema:"-"`
}

type UploadAttachmentResponse struct {
	Attachment         *entity.Attachment         `json:"attachment,omitempty"`
	UploadedAttachment *entity.UploadedAttachment `json:"uploaded_attachment,omitempty"`
}

func (h *attachmentHandler) UploadAttachment(ctx context.Context, req *UploadAttachmentRequest, res *UploadAttachmentResponse) error {
	if goutil.IsNil(h.files) {
		return errutil.PreconditionError(ErrFileStoreDisabled)
	}

	if err := validateRequest(req); err != nil {
		return err
	}

	if err := attachmentFileValidator.Validate(req.FileMeta); err != nil {
		return err
	}

	count, err := h.attachmentRepo.Count(ctx, req.GetUserID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("count attachments failed: %v", err)
		return err
	}
	if count >= MaxLibraryAttachments {
		return errutil.PreconditionError(ErrAttachmentLimitHit)
	}

	fileID, err := h.files.Upload(ctx, req.FileMeta.FileName, req.FileMeta.Data)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("upload attachment failed: %v, file: %s", err, req.FileMeta.FileName)
		return err
	}

	att := &entity.UploadedAttachment{
		UserID:     goutil.Uint64(req.GetUserID()),
		Name:       goutil.String(req.FileMeta.FileName),
		URL:        goutil.String(dep.DriveScheme + fileID),
		FileID:     goutil.String(fileID),
		CreateTime: goutil.Uint64(uint64(time.Now().Unix())),
	}

	id, err := h.attachmentRepo.Create(ctx, att)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("save attachment failed: %v, file_id: %s", err, fileID)
		h.deleteFile(ctx, fileID)
		return err
	}
	att.ID = goutil.Uint64(id)

	res.Attachment = att.ToAttachment()
	res.UploadedAttachment = att

	return nil
}

type GetAttachmentsRequest struct {
	ContextInfo
}

type GetAttachmentsResponse struct {
	Attachments []*entity.UploadedAttachment `json:"attachments"`
}

func (h *attachmentHandler) GetAttachments(ctx context.Context, req *GetAttachmentsRequest, res *GetAttachmentsResponse) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	atts, err := h.attachmentRepo.GetMany(ctx, req.GetUserID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get attachments failed: %v", err)
		return err
	}

	if atts == nil {
		atts = make([]*entity.UploadedAttachment, 0)
	}
	res.Attachments = atts

	return nil
}

type DeleteAttachmentRequest struct {
	ContextInfo

	AttachmentID *uint64 `json:"attachment_id,omitempty" validate:"required,gt=0"`
}

func (req *DeleteAttachmentRequest) GetAttachmentID() uint64 {
	if req != nil && req.AttachmentID != nil {
		return *req.AttachmentID
	}
	return 0
}

type DeleteAttachmentResponse struct{}

// DeleteAttachment drops the library entry and its stored file. Templates
// still pointing at the file fail that attachment at send time.
func (h *attachmentHandler) DeleteAttachment(ctx context.Context, req *DeleteAttachmentRequest, _ *DeleteAttachmentResponse) error {
	if err := validateRequest(req); err != nil {
		return err
	}

	att, err := h.attachmentRepo.Get(ctx, req.GetUserID(), req.GetAttachmentID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get attachment failed: %v, attachment_id: %d", err, req.GetAttachmentID())
		return err
	}

	if err := h.attachmentRepo.Delete(ctx, req.GetUserID(), att.GetID()); err != nil {
		log.Ctx(ctx).Error().Msgf("delete attachment failed: %v, attachment_id: %d", err, att.GetID())
		return err
	}

	if att.GetFileID() != "" {
		h.deleteFile(ctx, att.GetFileID())
	}

	return nil
}

// deleteFile logs failures instead of returning them.
func (h *attachmentHandler) deleteFile(ctx context.Context, fileID string) {
	if goutil.IsNil(h.files) {
		return
	}
	if err := h.files.Delete(ctx, fileID); err != nil {
		log.Ctx(ctx).Warn().Msgf("delete stored file failed: %v, file_id: %s", err, fileID)
	}
}
