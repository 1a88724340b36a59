package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aurora-agent/internal/domain"
	"aurora-agent/internal/integrations/paramstore"
)

type fakeGetter struct {
	val string
	err error
}

func (f fakeGetter) GetParameter(context.Context, string) (string, error) { return f.val, f.err }

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(fakeGetter{val: `{"token":"hf_test"}`}, "/aurora",
		WithBaseURL(srv.URL+"/models/"),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(nil, "/aurora")
	require.ErrorContains(t, err, "nil")
	_, err = NewClient(fakeGetter{}, "/")
	require.ErrorContains(t, err, "prefix")

	c, err := NewClient(fakeGetter{}, "/aurora")
	require.NoError(t, err)
	require.Equal(t, "/aurora/hf-token", c.token.Name())
	require.Equal(t, DefaultModel, c.model)
}

func TestClassify_NestedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models/"+DefaultModel, r.URL.Path)
		require.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))

		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "I can't sleep", req.Inputs)

		_, _ = w.Write([]byte(`[[{"label":"fear","score":0.81},{"label":"sadness","score":0.12},{"label":"joy","score":0.07}]]`))
	}))
	defer srv.Close()

	scores, err := newTestClient(t, srv).Classify(context.Background(), "I can't sleep")
	require.NoError(t, err)
	require.Len(t, scores, 3)
	require.Equal(t, domain.EmotionObservation{Label: domain.EmotionFear, Score: 0.81}, domain.TopEmotion(scores))
}

func TestClassify_FlatResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"JOY","score":0.9},{"label":"love","score":0.1}]`))
	}))
	defer srv.Close()

	scores, err := newTestClient(t, srv).Classify(context.Background(), "great day")
	require.NoError(t, err)
	require.Equal(t, domain.EmotionJoy, domain.TopEmotion(scores).Label)
}

func TestClassify_Errors(t *testing.T) {
	_, err := (&Client{}).Classify(context.Background(), "  ")
	require.ErrorContains(t, err, "empty")

	loading := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
	}))
	defer loading.Close()
	_, err = newTestClient(t, loading).Classify(context.Background(), "hi")
	var se *HTTPStatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusServiceUnavailable, se.HTTPStatusCode())

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"label":"joy"}`))
	}))
	defer garbage.Close()
	_, err = newTestClient(t, garbage).Classify(context.Background(), "hi")
	require.ErrorContains(t, err, "decode response")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer empty.Close()
	_, err = newTestClient(t, empty).Classify(context.Background(), "hi")
	require.ErrorContains(t, err, "empty classification")
}

func TestClassify_MissingToken(t *testing.T) {
	c, err := NewClient(fakeGetter{err: paramstore.ErrNotFound}, "/aurora")
	require.NoError(t, err)
	_, err = c.Classify(context.Background(), "hi")
	require.ErrorIs(t, err, paramstore.ErrCredentials)
}
