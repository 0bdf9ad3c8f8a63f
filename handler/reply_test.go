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

func TestReplyHandler_AddReplies(t *testing.T) {
	var (
		replies = &fakeReplyRepo{}
		h       = NewReplyHandler(replies)
		ctx     = context.Background()
	)

	res := new(AddRepliesResponse)
	require.NoError(t, h.AddReplies(ctx, &AddRepliesRequest{
		ContextInfo: ctxInfo(testUserID),
		Date:        goutil.Uint64(1700000000),
		Replies: []*ReplyInput{
			{HRName: goutil.String("Ann"), CompanyName: goutil.String("Acme"), Status: goutil.String("Positive")},
			{CompanyName: goutil.String("Beta"), Status: goutil.String("Negative"), Content: goutil.String("No openings")},
		},
	}, res))

	require.Len(t, res.Replies, 2)
	assert.Equal(t, uint64(1), res.Replies[0].GetID())
	assert.Equal(t, entity.ReplyStatusNegative, res.Replies[1].GetStatus())
	assert.Equal(t, uint64(1700000000), res.Replies[1].GetDate())
	assert.Equal(t, uint64(2), replies.replyCount)

	got := new(GetRepliesResponse)
	require.NoError(t, h.GetReplies(ctx, &GetRepliesRequest{
		ContextInfo: ctxInfo(testUserID),
		Status:      goutil.String("Positive"),
	}, got))
	require.Len(t, got.Replies, 1)
	assert.Equal(t, uint32(DefaultMaxLimit), got.Pagination.GetLimit())
}

func TestReplyHandler_AddRepliesDefaultDate(t *testing.T) {
	h := NewReplyHandler(&fakeReplyRepo{})

	res := new(AddRepliesResponse)
	require.NoError(t, h.AddReplies(context.Background(), &AddRepliesRequest{
		ContextInfo: ctxInfo(testUserID),
		Replies:     []*ReplyInput{{HRName: goutil.String("Ann"), Status: goutil.String("Neutral")}},
	}, res))
	assert.NotZero(t, res.Replies[0].GetDate())
}

func TestReplyHandler_AddRepliesValidation(t *testing.T) {
	replies := &fakeReplyRepo{}
	h := NewReplyHandler(replies)

	tests := []struct {
		name string
		req  *AddRepliesRequest
	}{
		{"no replies", &AddRepliesRequest{ContextInfo: ctxInfo(testUserID)}},
		{"unknown status", &AddRepliesRequest{
			ContextInfo: ctxInfo(testUserID),
			Replies:     []*ReplyInput{{HRName: goutil.String("Ann"), Status: goutil.String("Maybe")}},
		}},
		{"no contact", &AddRepliesRequest{
			ContextInfo: ctxInfo(testUserID),
			Replies:     []*ReplyInput{{HRName: goutil.String(" "), Status: goutil.String("Positive")}},
		}},
		{"nil reply", &AddRepliesRequest{
			ContextInfo: ctxInfo(testUserID),
			Replies:     []*ReplyInput{nil},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.AddReplies(context.Background(), tt.req, new(AddRepliesResponse))
			code, _ := errutil.ParseHttpError(err)
			assert.Equal(t, http.StatusUnprocessableEntity, code)
		})
	}

	assert.Zero(t, replies.replyCount)
}

func TestReplyHandler_DeleteReply(t *testing.T) {
	var (
		replies = &fakeReplyRepo{}
		h       = NewReplyHandler(replies)
		ctx     = context.Background()
	)

	require.NoError(t, h.AddReplies(ctx, &AddRepliesRequest{
		ContextInfo: ctxInfo(testUserID),
		Replies:     []*ReplyInput{{HRName: goutil.String("Ann"), Status: goutil.String("Positive")}},
	}, new(AddRepliesResponse)))

	err := h.DeleteReply(ctx, &DeleteReplyRequest{ContextInfo: ctxInfo(testUserID + 1), ReplyID: goutil.Uint64(1)}, new(DeleteReplyResponse))
	assert.ErrorIs(t, err, repo.ErrReplyNotFound)

	require.NoError(t, h.DeleteReply(ctx, &DeleteReplyRequest{ContextInfo: ctxInfo(testUserID), ReplyID: goutil.Uint64(1)}, new(DeleteReplyResponse)))

	got := new(GetRepliesResponse)
	require.NoError(t, h.GetReplies(ctx, &GetRepliesRequest{ContextInfo: ctxInfo(testUserID)}, got))
	assert.NotNil(t, got.Replies)
	assert.Empty(t, got.Replies)
	assert.Equal(t, uint64(1), replies.replyCount)
}

func TestReplyHandler_RepoError(t *testing.T) {
	h := NewReplyHandler(&fakeReplyRepo{err: errDB})

	err := h.GetReplies(context.Background(), &GetRepliesRequest{ContextInfo: ctxInfo(testUserID)}, new(GetRepliesResponse))
	assert.ErrorIs(t, err, errDB)
}
