package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/labsense/internal/model"
)

// cloudAPI is a fake Cloud API recording what it received
type cloudAPI struct {
	mu         sync.Mutex
	messages   []map[string]interface{}
	uploads    int
	failStatus map[string]int // path suffix -> status
	server     *httptest.Server
}

func newCloudAPI(t *testing.T) *cloudAPI {
	t.Helper()
	api := &cloudAPI{failStatus: map[string]int{}}

	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()

		assert.Equal(t, "Bearer test_token", r.Header.Get("Authorization"))
		for suffix, status := range api.failStatus {
			if strings.HasSuffix(r.URL.Path, suffix) {
				w.WriteHeader(status)
				w.Write([]byte(`{"error":{"message":"rejected"}}`))
				return
			}
		}

		switch r.URL.Path {
		case "/123456789/media":
			if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
				return
			}
			assert.Equal(t, "whatsapp", r.FormValue("messaging_product"))

			file, header, err := r.FormFile("file")
			if !assert.NoError(t, err) {
				return
			}
			defer file.Close()
			assert.Equal(t, "summary.mp3", header.Filename)
			assert.Equal(t, "audio/mpeg", header.Header.Get("Content-Type"))
			data, _ := io.ReadAll(file)
			assert.Equal(t, "chunk1chunk2", string(data))

			api.uploads++
			json.NewEncoder(w).Encode(map[string]string{"id": "media.42"})

		case "/123456789/messages":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var msg map[string]interface{}
			if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg)) {
				return
			}
			api.messages = append(api.messages, msg)

			json.NewEncoder(w).Encode(map[string]interface{}{
				"messaging_product": "whatsapp",
				"messages":          []map[string]string{{"id": "wamid.test123"}},
			})

		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(api.server.Close)
	return api
}

func (a *cloudAPI) sender(t *testing.T) *WhatsAppCloudSender {
	t.Helper()
	s, err := NewWhatsAppCloudSender(WhatsAppConfig{
		BaseURL:       a.server.URL,
		AccessToken:   "test_token",
		PhoneNumberID: "123456789",
	}, a.server.Client())
	require.NoError(t, err)
	return s
}

func writeAudio(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for i, data := range []string{"chunk1", "chunk2"} {
		p := filepath.Join(dir, "summary_"+string(rune('1'+i))+"_abcd1234.mp3")
		require.NoError(t, os.WriteFile(p, []byte(data), 0644))
		paths = append(paths, p)
	}
	return paths
}

func TestNewWhatsAppCloudSender(t *testing.T) {
	tests := []struct {
		name    string
		cfg     WhatsAppConfig
		wantErr bool
	}{
		{"Valid credentials", WhatsAppConfig{AccessToken: "test_token", PhoneNumberID: "123456789"}, false},
		{"Missing access token", WhatsAppConfig{PhoneNumberID: "123456789"}, true},
		{"Missing phone number ID", WhatsAppConfig{AccessToken: "test_token"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender, err := NewWhatsAppCloudSender(tt.cfg, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultBaseURL, sender.baseURL)
		})
	}
}

func TestWhatsAppCloudSender_SendTemplate(t *testing.T) {
	api := newCloudAPI(t)

	id, err := api.sender(t).SendTemplate(context.Background(), "919876543210", "lab_summary_marathi", "en", []string{"Ravi", "सारांश"})
	require.NoError(t, err)
	assert.Equal(t, "wamid.test123", id)

	require.Len(t, api.messages, 1)
	msg := api.messages[0]
	assert.Equal(t, "template", msg["type"])
	assert.Equal(t, "919876543210", msg["to"])

	template := msg["template"].(map[string]interface{})
	assert.Equal(t, "lab_summary_marathi", template["name"])
	assert.Equal(t, "en", template["language"].(map[string]interface{})["code"])

	params := template["components"].([]interface{})[0].(map[string]interface{})["parameters"].([]interface{})
	require.Len(t, params, 2)
	assert.Equal(t, "Ravi", params[0].(map[string]interface{})["text"])
	assert.Equal(t, "सारांश", params[1].(map[string]interface{})["text"])
}

func TestWhatsAppCloudSender_SendText(t *testing.T) {
	api := newCloudAPI(t)

	id, err := api.sender(t).SendText(context.Background(), "919876543210", "hello")
	require.NoError(t, err)
	assert.Equal(t, "wamid.test123", id)
	assert.Equal(t, "hello", api.messages[0]["text"].(map[string]interface{})["body"])
}

func TestWhatsAppCloudSender_SendAudio(t *testing.T) {
	api := newCloudAPI(t)

	id, err := api.sender(t).SendAudio(context.Background(), "919876543210", []byte("chunk1chunk2"))
	require.NoError(t, err)
	assert.Equal(t, "wamid.test123", id)
	assert.Equal(t, 1, api.uploads)

	msg := api.messages[0]
	assert.Equal(t, "audio", msg["type"])
	assert.Equal(t, "media.42", msg["audio"].(map[string]interface{})["id"])
}

func TestWhatsAppCloudSender_APIError(t *testing.T) {
	api := newCloudAPI(t)
	api.failStatus["/messages"] = http.StatusUnauthorized

	_, err := api.sender(t).SendText(context.Background(), "919876543210", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestDeliverer_TextThenAudio(t *testing.T) {
	api := newCloudAPI(t)
	d := NewDeliverer(api.sender(t), DeliveryOptions{Logger: zerolog.Nop()})

	summary := "हिमोग्लोबिन 9.2 g/dL\n\nआहे."
	result, err := d.Deliver(context.Background(), "+91 98765 43210", "", summary, writeAudio(t))
	require.NoError(t, err)

	assert.Equal(t, "919876543210", result.To)
	assert.True(t, result.TextOK)
	assert.True(t, result.AudioOK)
	assert.Equal(t, "wamid.test123", result.MessageID)

	require.Len(t, api.messages, 2)
	assert.Equal(t, "template", api.messages[0]["type"])
	assert.Equal(t, "audio", api.messages[1]["type"])

	params := api.messages[0]["template"].(map[string]interface{})["components"].([]interface{})[0].(map[string]interface{})["parameters"].([]interface{})
	assert.Equal(t, "Patient", params[0].(map[string]interface{})["text"])
	assert.Equal(t, "हिमोग्लोबिन 9.2 g/dL आहे.", params[1].(map[string]interface{})["text"])
}

func TestDeliverer_PlainText(t *testing.T) {
	api := newCloudAPI(t)
	d := NewDeliverer(api.sender(t), DeliveryOptions{PlainText: true, Logger: zerolog.Nop()})

	result, err := d.Deliver(context.Background(), "9876543210", "Ravi", "summary", nil)
	require.NoError(t, err)
	assert.True(t, result.TextOK)
	assert.False(t, result.AudioOK)
	assert.Contains(t, result.Detail, "no audio")

	require.Len(t, api.messages, 1)
	assert.Equal(t, "text", api.messages[0]["type"])
	assert.Equal(t, "Ravi,\nsummary", api.messages[0]["text"].(map[string]interface{})["body"])
}

func TestDeliverer_TemplateFailureStopsAudio(t *testing.T) {
	api := newCloudAPI(t)
	api.failStatus["/messages"] = http.StatusBadRequest
	d := NewDeliverer(api.sender(t), DeliveryOptions{Logger: zerolog.Nop()})

	result, err := d.Deliver(context.Background(), "9876543210", "Ravi", "summary", writeAudio(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDeliveryFailed)
	assert.False(t, result.TextOK)
	assert.False(t, result.AudioOK)
	assert.Zero(t, api.uploads)
	assert.Contains(t, result.Detail, "status 400")
}

func TestDeliverer_AudioFailureKeepsText(t *testing.T) {
	api := newCloudAPI(t)
	api.failStatus["/media"] = http.StatusInternalServerError
	d := NewDeliverer(api.sender(t), DeliveryOptions{Logger: zerolog.Nop()})

	result, err := d.Deliver(context.Background(), "9876543210", "Ravi", "summary", writeAudio(t))
	assert.ErrorIs(t, err, model.ErrDeliveryFailed)
	assert.True(t, result.TextOK)
	assert.False(t, result.AudioOK)
	assert.Contains(t, result.Detail, "audio message failed")
}

func TestDeliverer_InvalidPhone(t *testing.T) {
	api := newCloudAPI(t)
	d := NewDeliverer(api.sender(t), DeliveryOptions{Logger: zerolog.Nop()})

	result, err := d.Deliver(context.Background(), "12345", "Ravi", "summary", nil)
	assert.ErrorIs(t, err, model.ErrDeliveryFailed)
	assert.False(t, result.TextOK)
	assert.Empty(t, api.messages)
}

func TestNewDelivererFromConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	_, err := NewDelivererFromConfig(*cfg, nil, zerolog.Nop())
	assert.Error(t, err, "credentials are required")

	cfg.Messaging.AccessToken = "token"
	cfg.Messaging.PhoneNumberID = "42"
	d, err := NewDelivererFromConfig(*cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "lab_summary_marathi", d.opts.TemplateName)
	assert.Equal(t, 400, d.opts.MaxParamChars)
}
