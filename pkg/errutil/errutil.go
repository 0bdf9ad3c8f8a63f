package errutil

import (
	"errors"
	"net/http"
)

type HttpError struct {
	code int
	err  error
}

func (e *HttpError) Error() string {
	return e.err.Error()
}

func (e *HttpError) Unwrap() error {
	return e.err
}

func (e *HttpError) Code() int {
	return e.code
}

func ValidationError(err error) error {
	return &HttpError{code: http.StatusUnprocessableEntity, err: err}
}

func BadRequestError(err error) error {
	return &HttpError{code: http.StatusBadRequest, err: err}
}

func NotFoundError(err error) error {
	return &HttpError{code: http.StatusNotFound, err: err}
}

func ConflictError(err error) error {
	return &HttpError{code: http.StatusConflict, err: err}
}

func PreconditionError(err error) error {
	return &HttpError{code: http.StatusPreconditionFailed, err: err}
}

// ParseHttpError maps err to a status code and a client facing message.
// Errors not raised through this package are reported as internal errors.
func ParseHttpError(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr.code, httpErr.Error()
	}

	return http.StatusInternalServerError, "internal server error"
}
