package consume_dispatch_requests

import (
	"codemailer/pkg/goutil"
	"codemailer/pkg/mq"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToStartRequest(t *testing.T) {
	raw := []byte(`{"user_id":7,"template_id":3,"recipients":[{"email":"a@acme.com","Name":"Ann"}],"concurrency_limit":5,"shared_with":["x@acme.com"]}`)

	body := new(mq.DispatchRequest)
	require.NoError(t, json.Unmarshal(raw, body))

	req := ToStartRequest(body)
	assert.Equal(t, uint64(7), req.UserID)
	assert.Equal(t, uint64(3), req.TemplateID)
	assert.Equal(t, 5, req.ConcurrencyLimit)
	assert.Equal(t, []string{"x@acme.com"}, req.SharedWith)
	require.Len(t, req.Recipients, 1)
	assert.Equal(t, "Ann", req.Recipients[0]["Name"].String())

	req = ToStartRequest(&mq.DispatchRequest{UserID: goutil.Uint64(1)})
	assert.Nil(t, req.Recipients)
	assert.Zero(t, req.ConcurrencyLimit)
}
