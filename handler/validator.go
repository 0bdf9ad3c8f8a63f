package handler

import (
	"codemailer/pkg/errutil"
	"codemailer/pkg/goutil"
	"codemailer/pkg/router"
	"errors"
	"github.com/go-playground/validator/v10"
	"path"
	"strings"
)

const (
	DefaultMaxLimit = 100
)

var (
	ErrMissingFile      = errors.New("missing file")
	ErrFileSizeTooLarge = errors.New("file size too large")
	ErrInvalidFileType  = errors.New("invalid file type")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return errutil.ValidationError(err)
	}
	return nil
}

type fileValidator struct {
	maxSize int64
	exts    []string
}

// FileValidator accepts files up to maxSize bytes whose extension is one of
// exts. An empty exts accepts any extension.
func FileValidator(maxSize int64, exts []string) *fileValidator {
	return &fileValidator{
		maxSize: maxSize,
		exts:    exts,
	}
}

func (v *fileValidator) Validate(fileMeta *router.FileMeta) error {
	if fileMeta == nil || len(fileMeta.Data) == 0 {
		return errutil.ValidationError(ErrMissingFile)
	}

	if fileMeta.Size > v.maxSize || int64(len(fileMeta.Data)) > v.maxSize {
		return errutil.ValidationError(ErrFileSizeTooLarge)
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileMeta.FileName), "."))
	if len(v.exts) > 0 && !goutil.ContainsStr(v.exts, ext) {
		return errutil.ValidationError(ErrInvalidFileType)
	}

	return nil
}
