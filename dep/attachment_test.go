package dep

import (
	"codemailer/entity"
	"codemailer/pkg/goutil"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDownloader struct {
	files map[string][]byte
}

func (d *fakeDownloader) Download(_ context.Context, fileID string) ([]byte, error) {
	b, ok := d.files[fileID]
	if !ok {
		return nil, errors.New("file not found")
	}
	return b, nil
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		fileName string
		want     string
	}{
		{
			name:     "document on image path",
			url:      "https://res.cloudinary.com/demo/image/upload/v1/cv.pdf",
			fileName: "cv.pdf",
			want:     "https://res.cloudinary.com/demo/raw/upload/v1/cv.pdf",
		},
		{
			name:     "image stays on image path",
			url:      "https://res.cloudinary.com/demo/image/upload/v1/logo.png",
			fileName: "logo.PNG",
			want:     "https://res.cloudinary.com/demo/image/upload/v1/logo.png",
		},
		{
			name:     "url without image path",
			url:      "https://files.example.com/docs/cv.docx",
			fileName: "cv.docx",
			want:     "https://files.example.com/docs/cv.docx",
		},
		{
			name:     "only the first segment is rewritten",
			url:      "https://res.cloudinary.com/demo/image/upload/image/upload/cv.pdf",
			fileName: "cv.pdf",
			want:     "https://res.cloudinary.com/demo/raw/upload/image/upload/cv.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.url, tt.fileName))
		})
	}
}

func TestContentTypeOf(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentTypeOf("resume.pdf"))
	assert.Equal(t, "application/pdf", ContentTypeOf("RESUME.PDF"))
	assert.Equal(t, "application/msword", ContentTypeOf("cover.doc"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", ContentTypeOf("cover.docx"))
	assert.Equal(t, "application/octet-stream", ContentTypeOf("photo.png"))
	assert.Equal(t, "application/octet-stream", ContentTypeOf("noext"))
}

func TestAttachmentResolver_Resolve(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://res.cloudinary.com/demo/raw/upload/v1/cv.pdf",
		httpmock.NewStringResponder(http.StatusOK, "%PDF-1.4"))
	httpmock.RegisterResponder(http.MethodGet, "https://files.example.com/missing.pdf",
		httpmock.NewStringResponder(http.StatusNotFound, "not found"))

	resolver := NewAttachmentResolver(nil, &fakeDownloader{
		files: map[string][]byte{"abc": []byte("drive bytes")},
	})

	t.Run("rewrites and fetches", func(t *testing.T) {
		att, err := resolver.Resolve(context.Background(), &entity.Attachment{
			Name: goutil.String("cv.pdf"),
			URL:  goutil.String("https://res.cloudinary.com/demo/image/upload/v1/cv.pdf"),
		})
		require.NoError(t, err)
		assert.Equal(t, "cv.pdf", att.Filename)
		assert.Equal(t, "application/pdf", att.ContentType)
		assert.Equal(t, []byte("%PDF-1.4"), att.Content)
	})

	t.Run("non success status", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), &entity.Attachment{
			URL: goutil.String("https://files.example.com/missing.pdf"),
		})
		require.Error(t, err)

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	})

	t.Run("drive reference", func(t *testing.T) {
		att, err := resolver.Resolve(context.Background(), &entity.Attachment{
			Name: goutil.String("notes.docx"),
			URL:  goutil.String("drive://abc"),
		})
		require.NoError(t, err)
		assert.Equal(t, []byte("drive bytes"), att.Content)
		assert.Equal(t, "notes.docx", att.Filename)
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), &entity.Attachment{
			URL: goutil.String("ftp://files.example.com/cv.pdf"),
		})
		assert.ErrorIs(t, err, ErrUnsupportedSource)
	})

	assert.Equal(t, 1, httpmock.GetCallCountInfo()["GET https://res.cloudinary.com/demo/raw/upload/v1/cv.pdf"])
}
