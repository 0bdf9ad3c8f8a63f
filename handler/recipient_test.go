package handler

import (
	"codemailer/pkg/errutil"
	"codemailer/pkg/goutil"
	"codemailer/pkg/recipientfile"
	"codemailer/pkg/router"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileMeta(name string, data []byte) *router.FileMeta {
	return &router.FileMeta{FileName: name, Size: int64(len(data)), Data: data}
}

func TestRecipientHandler_UploadRecipients(t *testing.T) {
	h := NewRecipientHandler(newFakeTemplateRepo(newTemplate(1, "Referral", "[Role] at [Company]", "Hi [name]")))

	data := []byte(`[{"hr_email":"a@acme.com","Name":"Ann","Company":"Acme"},{"email":"b@beta.com","Name":"Bob","Company":"Beta"}]`)

	res := new(UploadRecipientsResponse)
	require.NoError(t, h.UploadRecipients(context.Background(), &UploadRecipientsRequest{
		ContextInfo: ctxInfo(testUserID),
		TemplateID:  goutil.Uint64(1),
		FileMeta:    newFileMeta("list.json", data),
	}, res))

	assert.Equal(t, 2, res.Count)
	assert.True(t, res.HasEmailColumn)
	assert.Equal(t, "Ann", res.Recipients[0]["Name"].String())
	assert.Equal(t, []string{"Role"}, res.MissingVariables)
}

func TestRecipientHandler_UploadRecipientsCSVWithoutEmail(t *testing.T) {
	h := NewRecipientHandler(newFakeTemplateRepo())

	res := new(UploadRecipientsResponse)
	require.NoError(t, h.UploadRecipients(context.Background(), &UploadRecipientsRequest{
		ContextInfo: ctxInfo(testUserID),
		FileMeta:    newFileMeta("list.csv", []byte("Name,Company\nAnn,Acme\n")),
	}, res))

	assert.Equal(t, 1, res.Count)
	assert.False(t, res.HasEmailColumn)
	assert.Empty(t, res.MissingVariables)
}

func TestRecipientHandler_UploadRecipientsRejectsFile(t *testing.T) {
	h := NewRecipientHandler(newFakeTemplateRepo())

	tests := []struct {
		name     string
		fileMeta *router.FileMeta
		code     int
	}{
		{name: "missing file", fileMeta: nil, code: http.StatusUnprocessableEntity},
		{name: "wrong extension", fileMeta: newFileMeta("list.txt", []byte("a")), code: http.StatusUnprocessableEntity},
		{name: "malformed json", fileMeta: newFileMeta("list.json", []byte("{")), code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.UploadRecipients(context.Background(), &UploadRecipientsRequest{
				ContextInfo: ctxInfo(testUserID),
				FileMeta:    tt.fileMeta,
			}, new(UploadRecipientsResponse))
			code, _ := errutil.ParseHttpError(err)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestRecipientHandler_GetSampleFile(t *testing.T) {
	h := NewRecipientHandler(newFakeTemplateRepo(newTemplate(1, "My Referral", "[Role]", "Hi [Name] [Role]")))

	res := new(GetSampleFileResponse)
	require.NoError(t, h.GetSampleFile(context.Background(), &GetSampleFileRequest{
		ContextInfo: ctxInfo(testUserID),
		TemplateID:  goutil.Uint64(1),
		Format:      goutil.String(recipientfile.FormatJSON),
	}, res))

	assert.Equal(t, "My_Referral_sample.json", res.FileName)
	assert.Equal(t, recipientfile.ContentTypeJSON, res.ContentType)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Content, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "example@company.com", rows[0]["hr_email"])
	assert.Equal(t, "Value for Role", rows[0]["Role"])
	assert.Equal(t, "Value for Name", rows[0]["Name"])

	res = new(GetSampleFileResponse)
	require.NoError(t, h.GetSampleFile(context.Background(), &GetSampleFileRequest{
		ContextInfo: ctxInfo(testUserID),
		TemplateID:  goutil.Uint64(1),
	}, res))
	assert.Equal(t, "My_Referral_sample.xlsx", res.FileName)
	assert.NotEmpty(t, res.Content)

	err := h.GetSampleFile(context.Background(), &GetSampleFileRequest{
		ContextInfo: ctxInfo(testUserID),
		TemplateID:  goutil.Uint64(1),
		Format:      goutil.String("pdf"),
	}, new(GetSampleFileResponse))
	code, _ := errutil.ParseHttpError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}
