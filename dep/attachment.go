package dep

import (
	"codemailer/entity"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
)

const (
	imageDeliveryPath = "/image/upload/"
	rawDeliveryPath   = "/raw/upload/"

	DriveScheme = "drive://"

	defaultContentType = "application/octet-stream"
)

var ErrUnsupportedSource = errors.New("unsupported attachment source")

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

var imageExts = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "webp": {}, "bmp": {}, "svg": {}, "avif": {},
}

// FetchError reports a non-success status from the file host.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s failed: status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ReadError reports a response body that could not be read.
type ReadError struct {
	URL string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s failed: %v", e.URL, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// FileDownloader fetches a stored file by its id.
type FileDownloader interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

type AttachmentResolver interface {
	Resolve(ctx context.Context, att *entity.Attachment) (*MailAttachment, error)
}

type attachmentResolver struct {
	client *http.Client
	files  FileDownloader
}

// NewAttachmentResolver resolves http(s) attachment urls with client and
// drive:// references with files. files may be nil.
func NewAttachmentResolver(client *http.Client, files FileDownloader) AttachmentResolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &attachmentResolver{
		client: client,
		files:  files,
	}
}

func (r *attachmentResolver) Resolve(ctx context.Context, att *entity.Attachment) (*MailAttachment, error) {
	var (
		name = att.FileName()
		url  = att.GetURL()
	)

	var (
		content []byte
		err     error
	)
	if strings.HasPrefix(url, DriveScheme) {
		content, err = r.download(ctx, strings.TrimPrefix(url, DriveScheme))
	} else {
		content, err = r.fetch(ctx, NormalizeURL(url, name))
	}
	if err != nil {
		return nil, err
	}

	return &MailAttachment{
		Filename:    name,
		Content:     content,
		ContentType: ContentTypeOf(name),
	}, nil
}

func (r *attachmentResolver) download(ctx context.Context, fileID string) ([]byte, error) {
	if r.files == nil || fileID == "" {
		return nil, &FetchError{URL: DriveScheme + fileID, Err: ErrUnsupportedSource}
	}

	b, err := r.files.Download(ctx, fileID)
	if err != nil {
		return nil, &FetchError{URL: DriveScheme + fileID, Err: err}
	}

	return b, nil
}

func (r *attachmentResolver) fetch(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, &FetchError{URL: url, Err: ErrUnsupportedSource}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	res, err := r.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &FetchError{URL: url, StatusCode: res.StatusCode}
	}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &ReadError{URL: url, Err: err}
	}

	return b, nil
}

// NormalizeURL rewrites the image delivery path of the file host to the raw
// delivery path for non-image files. The host serves corrupted bytes for
// documents requested through the image path.
func NormalizeURL(url, fileName string) string {
	if isImage(fileName) {
		return url
	}
	return strings.Replace(url, imageDeliveryPath, rawDeliveryPath, 1)
}

// ContentTypeOf infers the MIME type from the file extension only.
func ContentTypeOf(fileName string) string {
	if ct, ok := contentTypes[extOf(fileName)]; ok {
		return ct
	}
	return defaultContentType
}

func isImage(fileName string) bool {
	_, ok := imageExts[extOf(fileName)]
	return ok
}

func extOf(fileName string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
}
