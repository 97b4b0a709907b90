package translate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/labsense/internal/model"
)

func TestGoogleBackend_Translate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "gtx", q.Get("client"))
		assert.Equal(t, "en", q.Get("sl"))
		assert.Equal(t, "mr", q.Get("tl"))
		assert.Equal(t, "t", q.Get("dt"))
		assert.Equal(t, "Hemoglobin is ⟦A⟧.\nSugar is ⟦B⟧.", q.Get("q"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[[["हिमोग्लोबिन ⟦A⟧ आहे.\n","Hemoglobin is ⟦A⟧.\n",null,null,10],["साखर ⟦B⟧ आहे.","Sugar is ⟦B⟧.",null,null,10]],null,"en"]`))
	}))
	defer server.Close()

	g := NewGoogleBackend(server.URL, server.Client())
	out, err := g.Translate(context.Background(), "Hemoglobin is ⟦A⟧.\nSugar is ⟦B⟧.", "en", "mr")

	require.NoError(t, err)
	assert.Equal(t, "हिमोग्लोबिन ⟦A⟧ आहे.\nसाखर ⟦B⟧ आहे.", out)
}

func TestGoogleBackend_ClientErrorIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	g := NewGoogleBackend(server.URL, nil)
	_, err := g.Translate(context.Background(), "Hello", "en", "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestGoogleBackend_EmptyText(t *testing.T) {
	g := NewGoogleBackend("http://127.0.0.1:0", nil)
	out, err := g.Translate(context.Background(), "  ", "en", "mr")

	require.NoError(t, err)
	assert.Equal(t, "  ", out)
}

func TestParseGTX(t *testing.T) {
	out, err := parseGTX([]byte(`[[["a",null],[null,"x"],["b","y"]],null]`))
	require.NoError(t, err)
	assert.Equal(t, "ab", out)

	_, err = parseGTX([]byte(`{"error":"nope"}`))
	assert.Error(t, err)

	_, err = parseGTX([]byte(`[]`))
	assert.Error(t, err)
}

func TestNewBackend(t *testing.T) {
	cfg := model.DefaultConfig()

	cfg.Translation.Backend = "none"
	b, err := NewBackend(*cfg)
	require.NoError(t, err)
	assert.Nil(t, b)

	cfg.Translation.Backend = "echo"
	b, err = NewBackend(*cfg)
	require.NoError(t, err)
	assert.Equal(t, "echo", b.Name())

	cfg.Translation.Backend = "google"
	b, err = NewBackend(*cfg)
	require.NoError(t, err)
	assert.Equal(t, "google", b.Name())

	cfg.Translation.Backend = "llm"
	cfg.LLM.Provider = ""
	_, err = NewBackend(*cfg)
	assert.Error(t, err)

	cfg.Translation.Backend = "deepl"
	_, err = NewBackend(*cfg)
	assert.Error(t, err)
}

func TestEcho_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Echo{}.Translate(ctx, "x", "en", "mr")
	assert.True(t, errors.Is(err, context.Canceled))
}
