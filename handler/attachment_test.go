package handler

import (
	"codemailer/entity"
	"codemailer/pkg/errutil"
	"codemailer/pkg/goutil"
	"codemailer/repo"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUploadedAttachment(id uint64, userID uint64, name string) *entity.UploadedAttachment {
	return &entity.UploadedAttachment{
		ID:     goutil.Uint64(id),
		UserID: goutil.Uint64(userID),
		Name:   goutil.String(name),
		URL:    goutil.String("drive://file-" + name),
		FileID: goutil.String("file-" + name),
	}
}

func TestAttachmentHandler_UploadAttachment(t *testing.T) {
	var (
		files = &fakeFileStore{}
		atts  = newFakeAttachmentRepo()
		h     = NewAttachmentHandler(files, atts)
	)

	res := new(UploadAttachmentResponse)
	require.NoError(t, h.UploadAttachment(context.Background(), &UploadAttachmentRequest{
		ContextInfo: ctxInfo(testUserID),
		FileMeta:    newFileMeta("resume.pdf", []byte("%PDF")),
	}, res))

	assert.Equal(t, "resume.pdf", res.Attachment.GetName())
	assert.Equal(t, "drive://file-resume.pdf", res.Attachment.GetURL())
	assert.Equal(t, []byte("%PDF"), files.files["resume.pdf"])

	assert.Equal(t, uint64(11), res.UploadedAttachment.GetID())
	assert.Equal(t, "file-resume.pdf", res.UploadedAttachment.GetFileID())

	got := new(GetAttachmentsResponse)
	require.NoError(t, h.GetAttachments(context.Background(), &GetAttachmentsRequest{ContextInfo: ctxInfo(testUserID)}, got))
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "resume.pdf", got.Attachments[0].GetName())
}

func TestAttachmentHandler_UploadAttachmentLibraryFull(t *testing.T) {
	var (
		files = &fakeFileStore{}
		atts  = newFakeAttachmentRepo(
			newUploadedAttachment(1, testUserID, "a.pdf"),
			newUploadedAttachment(2, testUserID, "b.pdf"),
			newUploadedAttachment(3, testUserID, "c.pdf"),
		)
		h = NewAttachmentHandler(files, atts)
	)

	err := h.UploadAttachment(context.Background(), &UploadAttachmentRequest{
		ContextInfo: ctxInfo(testUserID),
		FileMeta:    newFileMeta("d.pdf", []byte("%PDF")),
	}, new(UploadAttachmentResponse))
	assert.ErrorIs(t, err, ErrAttachmentLimitHit)
	assert.Empty(t, files.files)

	code, _ := errutil.ParseHttpError(err)
	assert.Equal(t, http.StatusPreconditionFailed, code)
}

func TestAttachmentHandler_UploadAttachmentSaveFailure(t *testing.T) {
	var (
		files = &fakeFileStore{}
		atts  = newFakeAttachmentRepo()
		h     = NewAttachmentHandler(files, atts)
	)
	atts.createErr = errDB

	err := h.UploadAttachment(context.Background(), &UploadAttachmentRequest{
		ContextInfo: ctxInfo(testUserID),
		FileMeta:    newFileMeta("resume.pdf", []byte("%PDF")),
	}, new(UploadAttachmentResponse))
	assert.ErrorIs(t, err, errDB)
	assert.Equal(t, []string{"file-resume.pdf"}, files.deleted)
}

func TestAttachmentHandler_DeleteAttachment(t *testing.T) {
	var (
		files = &fakeFileStore{deleteErr: errDB}
		atts  = newFakeAttachmentRepo(
			newUploadedAttachment(1, testUserID, "a.pdf"),
			newUploadedAttachment(2, testUserID+1, "b.pdf"),
		)
		h   = NewAttachmentHandler(files, atts)
		ctx = context.Background()
	)

	err := h.DeleteAttachment(ctx, &DeleteAttachmentRequest{
		ContextInfo:  ctxInfo(testUserID),
		AttachmentID: goutil.Uint64(2),
	}, new(DeleteAttachmentResponse))
	assert.ErrorIs(t, err, repo.ErrAttachmentNotFound)

	// a failed file delete does not fail the request
	require.NoError(t, h.DeleteAttachment(ctx, &DeleteAttachmentRequest{
		ContextInfo:  ctxInfo(testUserID),
		AttachmentID: goutil.Uint64(1),
	}, new(DeleteAttachmentResponse)))
	assert.Equal(t, []string{"file-a.pdf"}, files.deleted)

	got := new(GetAttachmentsResponse)
	require.NoError(t, h.GetAttachments(ctx, &GetAttachmentsRequest{ContextInfo: ctxInfo(testUserID)}, got))
	assert.NotNil(t, got.Attachments)
	assert.Empty(t, got.Attachments)
}

func TestAttachmentHandler_Disabled(t *testing.T) {
	atts := newFakeAttachmentRepo(newUploadedAttachment(1, testUserID, "a.pdf"))
	h := NewAttachmentHandler(nil, atts)

	err := h.UploadAttachment(context.Background(), &UploadAttachmentRequest{
		ContextInfo: ctxInfo(testUserID),
		FileMeta:    newFileMeta("resume.pdf", []byte("%PDF")),
	}, new(UploadAttachmentResponse))
	assert.ErrorIs(t, err, ErrFileStoreDisabled)

	code, _ := errutil.ParseHttpError(err)
	assert.Equal(t, http.StatusPreconditionFailed, code)

	require.NoError(t, h.DeleteAttachment(context.Background(), &DeleteAttachmentRequest{
		ContextInfo:  ctxInfo(testUserID),
		AttachmentID: goutil.Uint64(1),
	}, new(DeleteAttachmentResponse)))
	assert.Empty(t, atts.atts)
}
