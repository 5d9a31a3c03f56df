package devapi

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkyspace/internal/client"
	"inkyspace/internal/editor"
)

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, string, string) (string, error) {
	return "", errors.New("model offline")
}

func TestGenerateThreadContentReturnsMarkdown(t *testing.T) {
	env := setupTestServer(t, Options{})
	c := env.client(t)

	md, err := c.Threads.Generate(context.Background(), "tide tables for beginners", "educational")
	require.NoError(t, err)
	assert.Contains(t, md, "# Tide tables for beginners\n")
	assert.Contains(t, md, "_Tone: educational_")

	blocks := editor.ParseMarkdown(md)
	require.NotEmpty(t, blocks)
	assert.Equal(t, "header", blocks[0].Type)
}

func TestGenerateThreadContentFailures(t *testing.T) {
	env := setupTestServer(t, Options{})
	hc, err := client.New(env.base)
	require.NoError(t, err)

	_, err = hc.Text(context.Background(), client.Request{
		Method: http.MethodPost,
		Path:   "/gemini/generate/thread-content",
		Body:   map[string]string{"prompt": "  "},
	})
	apiErr, ok := client.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "prompt is required", apiErr.Message)

	broken := setupTestServer(t, Options{Generator: failingGenerator{}})
	_, err = broken.client(t).Threads.Generate(context.Background(), "anything", "")
	apiErr, ok = client.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}
