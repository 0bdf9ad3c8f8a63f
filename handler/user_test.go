package handler

import (
	"codemailer/entity"
	"codemailer/pkg/errutil"
	"codemailer/pkg/goutil"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_SetAppPassword(t *testing.T) {
	var (
		users = &fakeUserRepo{}
		h     = NewUserHandler(users, &fakeSealer{})
		ctx   = context.Background()
	)

	res := new(SetAppPasswordResponse)
	require.NoError(t, h.SetAppPassword(ctx, &SetAppPasswordRequest{
		Email:       goutil.String("Me@Gmail.com"),
		DisplayName: goutil.String("Me"),
		AppPassword: goutil.String("abcd efgh ijkl mnop"),
	}, res))
	assert.Equal(t, uint64(1), *res.UserID)

	user, err := users.GetByEmail(ctx, "me@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, "sealed:abcdefghijklmnop", user.GetAppPassword())

	// same email updates the stored credential
	res = new(SetAppPasswordResponse)
	require.NoError(t, h.SetAppPassword(ctx, &SetAppPasswordRequest{
		Email:       goutil.String("me@gmail.com"),
		AppPassword: goutil.String("qrstuvwxyzabcdef"),
	}, res))
	assert.Equal(t, uint64(1), *res.UserID)
	assert.Len(t, users.users, 1)
	assert.Equal(t, "sealed:qrstuvwxyzabcdef", users.users[0].GetAppPassword())
}

func TestUserHandler_SetAppPasswordErrors(t *testing.T) {
	ctx := context.Background()

	h := NewUserHandler(&fakeUserRepo{}, &fakeSealer{})
	err := h.SetAppPassword(ctx, &SetAppPasswordRequest{
		Email:       goutil.String("not-an-email"),
		AppPassword: goutil.String("x"),
	}, new(SetAppPasswordResponse))
	code, _ := errutil.ParseHttpError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	sealErr := errors.New("seal failed")
	users := &fakeUserRepo{users: []*entity.User{}}
	h = NewUserHandler(users, &fakeSealer{err: sealErr})
	err = h.SetAppPassword(ctx, &SetAppPasswordRequest{
		Email:       goutil.String("me@gmail.com"),
		AppPassword: goutil.String("x"),
	}, new(SetAppPasswordResponse))
	assert.ErrorIs(t, err, sealErr)
	assert.Empty(t, users.users)
}
