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

func TestTemplateHandler_CreateTemplate(t *testing.T) {
	var (
		templates = newFakeTemplateRepo()
		h         = NewTemplateHandler(templates)
		ctx       = context.Background()
	)

	req := &CreateTemplateRequest{
		ContextInfo: ctxInfo(testUserID),
		Name:        goutil.String("Referral"),
		Subject:     goutil.String("Referral for [Role] at [Company]"),
		Body:        goutil.String("Hi [Name],\nI would love to join [Company]."),
		Attachments: []*entity.Attachment{
			{Name: goutil.String("resume.pdf"), URL: goutil.String("https://res.cloudinary.com/x/image/upload/resume.pdf")},
		},
	}
	res := new(CreateTemplateResponse)

	require.NoError(t, h.CreateTemplate(ctx, req, res))
	assert.Equal(t, uint64(101), res.Template.GetID())
	assert.Equal(t, testUserID, res.Template.GetUserID())
	assert.Equal(t, []string{"Role", "Company", "Name"}, res.Variables)

	got := new(GetTemplateResponse)
	require.NoError(t, h.GetTemplate(ctx, &GetTemplateRequest{
		ContextInfo: ctxInfo(testUserID),
		TemplateID:  goutil.Uint64(101),
	}, got))
	assert.Equal(t, "Referral", got.Template.GetName())
	assert.Len(t, got.Template.GetAttachments(), 1)
}

func TestTemplateHandler_CreateTemplateValidation(t *testing.T) {
	h := NewTemplateHandler(newFakeTemplateRepo())

	tests := []struct {
		name string
		req  *CreateTemplateRequest
	}{
		{
			name: "missing user",
			req:  &CreateTemplateRequest{Name: goutil.String("a"), Subject: goutil.String("s"), Body: goutil.String("b")},
		},
		{
			name: "missing body",
			req:  &CreateTemplateRequest{ContextInfo: ctxInfo(testUserID), Name: goutil.String("a"), Subject: goutil.String("s")},
		},
		{
			name: "attachment without url",
			req: &CreateTemplateRequest{
				ContextInfo: ctxInfo(testUserID),
				Name:        goutil.String("a"),
				Subject:     goutil.String("s"),
				Body:        goutil.String("b"),
				Attachments: []*entity.Attachment{{Name: goutil.String("cv.pdf")}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.CreateTemplate(context.Background(), tt.req, new(CreateTemplateResponse))
			code, _ := errutil.ParseHttpError(err)
			assert.Equal(t, http.StatusUnprocessableEntity, code)
		})
	}
}

func TestTemplateHandler_GetTemplateOfOtherUser(t *testing.T) {
	h := NewTemplateHandler(newFakeTemplateRepo(newTemplate(1, "t", "s", "b")))

	err := h.GetTemplate(context.Background(), &GetTemplateRequest{
		ContextInfo: ctxInfo(testUserID + 1),
		TemplateID:  goutil.Uint64(1),
	}, new(GetTemplateResponse))
	assert.ErrorIs(t, err, repo.ErrTemplateNotFound)

	code, _ := errutil.ParseHttpError(err)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestTemplateHandler_GetTemplatesCapsLimit(t *testing.T) {
	h := NewTemplateHandler(newFakeTemplateRepo(
		newTemplate(1, "a", "s", "b"),
		newTemplate(2, "b", "s", "b"),
	))

	res := new(GetTemplatesResponse)
	require.NoError(t, h.GetTemplates(context.Background(), &GetTemplatesRequest{
		ContextInfo: ctxInfo(testUserID),
		Pagination:  &entity.Pagination{Limit: goutil.Uint32(1000)},
	}, res))

	assert.Len(t, res.Templates, 2)
	assert.Equal(t, uint32(DefaultMaxLimit), res.Pagination.GetLimit())
	assert.Equal(t, int64(2), res.Pagination.GetTotal())
}

func TestTemplateHandler_UpdateTemplate(t *testing.T) {
	tmpl := newTemplate(1, "Referral", "[Role] at [Company]", "Hi [name]")
	tmpl.CreateTime = goutil.Uint64(1700000000)
	tmpl.Attachments = []*entity.Attachment{{Name: goutil.String("cv.pdf"), URL: goutil.String("drive://file-cv.pdf")}}

	var (
		templates = newFakeTemplateRepo(tmpl)
		h         = NewTemplateHandler(templates)
		ctx       = context.Background()
	)

	res := new(UpdateTemplateResponse)
	require.NoError(t, h.UpdateTemplate(ctx, &UpdateTemplateRequest{
		ContextInfo: ctxInfo(testUserID),
		TemplateID:  goutil.Uint64(1),
		Name:        goutil.String("Follow up"),
		Subject:     goutil.String("Following up on [Role]"),
		Body:        goutil.String("Hi [Name], any news?"),
	}, res))
	assert.Equal(t, []string{"Role", "Name"}, res.Variables)

	got := new(GetTemplateResponse)
	require.NoError(t, h.GetTemplate(ctx, &GetTemplateRequest{
		ContextInfo: ctxInfo(testUserID),
		TemplateID:  goutil.Uint64(1),
	}, got))
	assert.Equal(t, "Follow up", got.Template.GetName())
	assert.Equal(t, uint64(1700000000), *got.Template.CreateTime)
	assert.Empty(t, got.Template.GetAttachments(), "omitted attachments clear the list")

	err := h.UpdateTemplate(ctx, &UpdateTemplateRequest{
		ContextInfo: ctxInfo(testUserID + 1),
		TemplateID:  goutil.Uint64(1),
		Name:        goutil.String("x"),
		Subject:     goutil.String("x"),
		Body:        goutil.String("x"),
	}, new(UpdateTemplateResponse))
	assert.ErrorIs(t, err, repo.ErrTemplateNotFound)

	err = h.UpdateTemplate(ctx, &UpdateTemplateRequest{
		ContextInfo: ctxInfo(testUserID),
		TemplateID:  goutil.Uint64(1),
		Name:        goutil.String("x"),
		Subject:     goutil.String("x"),
		Body:        goutil.String("x"),
		Attachments: []*entity.Attachment{{Name: goutil.String("cv.pdf")}},
	}, new(UpdateTemplateResponse))
	code, _ := errutil.ParseHttpError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestTemplateHandler_DeleteTemplate(t *testing.T) {
	var (
		templates = newFakeTemplateRepo(newTemplate(1, "Referral", "s", "b"))
		h         = NewTemplateHandler(templates)
		ctx       = context.Background()
	)

	err := h.DeleteTemplate(ctx, &DeleteTemplateRequest{
		ContextInfo: ctxInfo(testUserID + 1),
		TemplateID:  goutil.Uint64(1),
	}, new(DeleteTemplateResponse))
	code, _ := errutil.ParseHttpError(err)
	assert.Equal(t, http.StatusNotFound, code)

	require.NoError(t, h.DeleteTemplate(ctx, &DeleteTemplateRequest{
		ContextInfo: ctxInfo(testUserID),
		TemplateID:  goutil.Uint64(1),
	}, new(DeleteTemplateResponse)))

	err = h.GetTemplate(ctx, &GetTemplateRequest{
		ContextInfo: ctxInfo(testUserID),
		TemplateID:  goutil.Uint64(1),
	}, new(GetTemplateResponse))
	assert.ErrorIs(t, err, repo.ErrTemplateNotFound)

	err = h.DeleteTemplate(ctx, &DeleteTemplateRequest{ContextInfo: ctxInfo(testUserID)}, new(DeleteTemplateResponse))
	code, _ = errutil.ParseHttpError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}
