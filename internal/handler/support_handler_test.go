package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"teamsync-server/pkg/support"

	"github.com/stretchr/testify/assert"
)

type fakeSupportClient struct {
	reply  string
	err    error
	called bool
}

func (f *fakeSupportClient) Reply(ctx context.Context, message string) (string, error) {
	f.called = true
	return f.reply, f.err
}

func TestSupportChat_KeywordMatch(t *testing.T) {
	e, _ := newTestServer(t)
	client := &fakeSupportClient{reply: "model reply"}
	support.SetClient(client)
	t.Cleanup(func() { support.SetClient(nil) })

	for _, msg := range []string{
		"my account is locked",
		"I was BLOCKED from the dashboard",
		"I can't access my profile",
	} {
		rec := doJSON(e, http.MethodPost, "/api/support", `{"message":"`+msg+`"}`, "")
		requireStatus(t, rec, http.StatusOK)
		assert.Contains(t, decodeBody(t, rec)["reply"], "contact admin", "message %q", msg)
	}

	// Keyword path never reaches the model
	assert.False(t, client.called)
}

func TestSupportChat_ModelReply(t *testing.T) {
	e, _ := newTestServer(t)
	client := &fakeSupportClient{reply: "Here is how you create a team."}
	support.SetClient(client)
	t.Cleanup(func() { support.SetClient(nil) })

	rec := doJSON(e, http.MethodPost, "/api/support", `{"message":"how do I create a team?"}`, "")
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "Here is how you create a team.", decodeBody(t, rec)["reply"])
	assert.True(t, client.called)
}

func TestSupportChat_ModelFailure(t *testing.T) {
	e, _ := newTestServer(t)
	support.SetClient(&fakeSupportClient{err: errors.New("quota exceeded")})
	t.Cleanup(func() { support.SetClient(nil) })

	rec := doJSON(e, http.MethodPost, "/api/support", `{"message":"hello"}`, "")
	requireStatus(t, rec, http.StatusInternalServerError)
	assert.NotEmpty(t, decodeBody(t, rec)["reply"], "failure must carry user-facing fallback text")
}

func TestSupportChat_NotConfigured(t *testing.T) {
	e, _ := newTestServer(t)
	support.SetClient(nil)

	rec := doJSON(e, http.MethodPost, "/api/support", `{"message":"hello"}`, "")
	requireStatus(t, rec, http.StatusInternalServerError)
	assert.Contains(t, decodeBody(t, rec)["reply"], "not properly configured")
}
