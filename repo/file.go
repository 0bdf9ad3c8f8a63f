package repo

import (
	"bytes"
	"codemailer/config"
	"context"
	"encoding/json"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"io"
)

// FileRepo stores template attachments in Google Drive.
type FileRepo interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	Delete(ctx context.Context, fileID string) error
	Close(ctx context.Context) error
}

type fileRepo struct {
	baseFolderID string

	srv *drive.Service
}

func NewFileRepo(ctx context.Context, cfg config.GoogleDrive) (FileRepo, error) {
	b, err := json.Marshal(cfg.GoogleServiceAccount)
	if err != nil {
		return nil, err
	}

	srv, err := drive.NewService(ctx, option.WithCredentialsJSON(b), option.WithScopes(drive.DriveFileScope))
	if err != nil {
		return nil, err
	}

	return &fileRepo{
		baseFolderID: cfg.BaseFolderID,
		srv:          srv,
	}, nil
}

func (r *fileRepo) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	f := &drive.File{
		Name: fileName,
	}
	if r.baseFolderID != "" {
		f.Parents = []string{r.baseFolderID}
	}

	file, err := r.srv.Files.Create(f).Media(bytes.NewReader(data)).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return file.Id, nil
}

func (r *fileRepo) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := r.srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	return io.ReadAll(resp.Body)
}

func (r *fileRepo) Delete(ctx context.Context, fileID string) error {
	return r.srv.Files.Delete(fileID).Context(ctx).Do()
}

func (r *fileRepo) Close(_ context.Context) error {
	return nil
}
