package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/sitebot/internal/infra/httpx"
)

func TestGroq_ClassifyImageSendsDataURL(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  APTA \n"}}]}`))
	}))
	defer srv.Close()

	g, err := NewGroq(GroqOptions{APIKey: "k", BaseURL: srv.URL + "/", VisionModel: "vision-m", TextModel: "text-m"})
	require.NoError(t, err)

	out, err := g.Classify(context.Background(), Request{Prompt: "p", Image: []byte("abc"), ImageMIME: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "APTA", out)

	assert.Equal(t, "vision-m", got["model"])
	assert.EqualValues(t, 100, got["max_tokens"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	parts := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "p", parts[0].(map[string]any)["text"])
	img := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/png;base64,YWJj", img["url"])
}

func TestGroq_ClassifyTextUsesTextModel(t *testing.T) {
	var got groqChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"VALIDO"}}]}`))
	}))
	defer srv.Close()

	g, err := NewGroq(GroqOptions{APIKey: "k", BaseURL: srv.URL, TextModel: "text-m"})
	require.NoError(t, err)

	out, err := g.Classify(context.Background(), Request{Prompt: "hola"})
	require.NoError(t, err)
	assert.Equal(t, "VALIDO", out)
	assert.Equal(t, "text-m", got.Model)
	assert.Equal(t, "hola", got.Messages[0].Content)
}

func TestGroq_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g, err := NewGroq(GroqOptions{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = g.Classify(context.Background(), Request{Prompt: "x"})
	var se *httpx.StatusError
	require.True(t, errors.As(err, &se), "期望 StatusError，实际 %v", err)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.True(t, strings.Contains(se.Body, "rate limited"))
}

func TestGroq_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	g, err := NewGroq(GroqOptions{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = g.Classify(context.Background(), Request{Prompt: "x"})
	assert.Error(t, err)
}

func TestNewGroq_RequiresKey(t *testing.T) {
	_, err := NewGroq(GroqOptions{APIKey: "  "})
	assert.Error(t, err)
}
