package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"aurora-agent/internal/domain"
	"aurora-agent/internal/integrations/paramstore"
)

type fakeGetter struct {
	val string
	err error
}

func (f fakeGetter) GetParameter(context.Context, string) (string, error) { return f.val, f.err }

type fakeGenerator struct {
	resp *genai.GenerateContentResponse
	err  error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.err
}

func textResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Role: genai.RoleModel, Parts: parts},
	}}}
}

func newTestClient(t *testing.T, gen *fakeGenerator) (*Client, *int) {
	t.Helper()
	c, err := NewClient(fakeGetter{val: `{"token":"AIza-test"}`}, "/aurora")
	require.NoError(t, err)
	created := 0
	c.newGen = func(_ context.Context, apiKey string) (generator, error) {
		require.Equal(t, "AIza-test", apiKey)
		created++
		return gen, nil
	}
	return c, &created
}

func TestComplete_MapsRolesAndSystemInstruction(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(
		&genai.Part{Text: "thinking...", Thought: true},
		&genai.Part{Text: "That sounds hard. "},
		&genai.Part{Text: "I'm here."},
	)}
	c, created := newTestClient(t, gen)

	got, err := c.Complete(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "You are Aurora."},
		{Role: domain.RoleUser, Content: "rough day"},
		{Role: domain.RoleAssistant, Content: "Tell me more."},
		{Role: domain.RoleUser, Content: "work"},
	})
	require.NoError(t, err)
	require.Equal(t, "That sounds hard. I'm here.", got)

	require.Equal(t, DefaultModel, gen.model)
	require.Len(t, gen.contents, 3)
	require.Equal(t, genai.RoleUser, gen.contents[0].Role)
	require.Equal(t, genai.RoleModel, gen.contents[1].Role)
	require.Equal(t, "You are Aurora.", gen.config.SystemInstruction.Parts[0].Text)
	require.Empty(t, gen.config.ResponseMIMEType)

	_, err = c.Complete(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "again"}})
	require.NoError(t, err)
	require.Equal(t, 1, *created)
}

func TestCompleteJSON_SetsMIMEType(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(&genai.Part{Text: `{"summary":"x"}`})}
	c, _ := newTestClient(t, gen)

	got, err := c.CompleteJSON(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "go"}}, "insights", nil)
	require.NoError(t, err)
	require.Equal(t, `{"summary":"x"}`, got)
	require.Equal(t, "application/json", gen.config.ResponseMIMEType)
	require.Nil(t, gen.config.SystemInstruction)
}

func TestComplete_Errors(t *testing.T) {
	gen := &fakeGenerator{err: genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED", Message: "quota"}}
	c, _ := newTestClient(t, gen)

	_, err := c.Complete(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusTooManyRequests, se.HTTPStatusCode())

	_, err = c.Complete(context.Background(), []domain.ChatMessage{{Role: domain.RoleSystem, Content: "only system"}})
	require.ErrorContains(t, err, "no user or assistant messages")

	gen.err, gen.resp = nil, &genai.GenerateContentResponse{}
	_, err = c.Complete(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}})
	require.ErrorContains(t, err, "empty response")
}

func TestComplete_MissingKey(t *testing.T) {
	c, err := NewClient(fakeGetter{err: paramstore.ErrNotFound}, "/aurora")
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}})
	require.ErrorIs(t, err, paramstore.ErrCredentials)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(nil, "/aurora")
	require.ErrorContains(t, err, "nil")
	_, err = NewClient(fakeGetter{}, "")
	require.ErrorContains(t, err, "prefix")

	c, err := NewClient(fakeGetter{}, "/aurora", WithModel("gemini-2.5-flash"))
	require.NoError(t, err)
	require.Equal(t, "gemini-2.5-flash", c.Model())
}
