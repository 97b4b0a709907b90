package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// DefaultBaseURL is the WhatsApp Cloud API root
const DefaultBaseURL = "https://graph.facebook.com/v22.0"

// Messenger sends WhatsApp messages and returns the message ID
type Messenger interface {
	SendTemplate(ctx context.Context, to, templateName, languageCode string, parameters []string) (string, error)
	SendText(ctx context.Context, to, body string) (string, error)
	SendAudio(ctx context.Context, to string, audio []byte) (string, error)
}

// WhatsAppConfig configures the Cloud API client
type WhatsAppConfig struct {
	BaseURL       string
	AccessToken   string
	PhoneNumberID string
}

// WhatsAppCloudSender sends messages via WhatsApp Cloud API
type WhatsAppCloudSender struct {
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
	baseURL       string
}

// NewWhatsAppCloudSender creates a new WhatsApp sender
func NewWhatsAppCloudSender(cfg WhatsAppConfig, client *http.Client) (*WhatsAppCloudSender, error) {
	if cfg.AccessToken == "" || cfg.PhoneNumberID == "" {
		return nil, fmt.Errorf("WHATSAPP_ACCESS_TOKEN and WHATSAPP_PHONE_NUMBER_ID must be set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &WhatsAppCloudSender{
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		httpClient:    client,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// WhatsAppTemplateMessage represents a template message
type WhatsAppTemplateMessage struct {
	MessagingProduct string                      `json:"messaging_product"`
	RecipientType    string                      `json:"recipient_type"`
	To               string                      `json:"to"`
	Type             string                      `json:"type"`
	Template         WhatsAppTemplateMessageBody `json:"template"`
}

// WhatsAppTemplateMessageBody represents the template body
type WhatsAppTemplateMessageBody struct {
	Name       string                             `json:"name"`
	Language   WhatsAppLanguage                   `json:"language"`
	Components []WhatsAppTemplateMessageComponent `json:"components,omitempty"`
}

// WhatsAppLanguage represents the language code
type WhatsAppLanguage struct {
	Code string `json:"code"`
}

// WhatsAppTemplateMessageComponent represents a template component
type WhatsAppTemplateMessageComponent struct {
	Type       string                             `json:"type"`
	Parameters []WhatsAppTemplateMessageParameter `json:"parameters"`
}

// WhatsAppTemplateMessageParameter represents a template parameter
type WhatsAppTemplateMessageParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// WhatsAppTextMessage represents a text message
type WhatsAppTextMessage struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

// WhatsAppAudioMessage references previously uploaded media
type WhatsAppAudioMessage struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Audio            struct {
		ID string `json:"id"`
	} `json:"audio"`
}

// WhatsAppResponse represents the API response
type WhatsAppResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// WhatsAppMediaResponse is returned by a media upload
type WhatsAppMediaResponse struct {
	ID string `json:"id"`
}

// SendTemplate sends a template message
func (w *WhatsAppCloudSender) SendTemplate(ctx context.Context, to, templateName, languageCode string, parameters []string) (string, error) {
	var components []WhatsAppTemplateMessageComponent
	if len(parameters) > 0 {
		params := make([]WhatsAppTemplateMessageParameter, len(parameters))
		for i, param := range parameters {
			params[i] = WhatsAppTemplateMessageParameter{
				Type: "text",
				Text: param,
			}
		}
		components = append(components, WhatsAppTemplateMessageComponent{
			Type:       "body",
			Parameters: params,
		})
	}

	message := WhatsAppTemplateMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "template",
		Template: WhatsAppTemplateMessageBody{
			Name:       templateName,
			Language:   WhatsAppLanguage{Code: languageCode},
			Components: components,
		},
	}

	return w.sendMessage(ctx, message)
}

// SendText sends a text message
func (w *WhatsAppCloudSender) SendText(ctx context.Context, to, body string) (string, error) {
	message := WhatsAppTextMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
	}
	message.Text.Body = body

	return w.sendMessage(ctx, message)
}

// SendAudio uploads mp3 audio as media, then sends it as an audio message
func (w *WhatsAppCloudSender) SendAudio(ctx context.Context, to string, audio []byte) (string, error) {
	mediaID, err := w.UploadMedia(ctx, audio, "summary.mp3", "audio/mpeg")
	if err != nil {
		return "", err
	}

	message := WhatsAppAudioMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "audio",
	}
	message.Audio.ID = mediaID

	return w.sendMessage(ctx, message)
}

// UploadMedia posts a file to the phone number's media endpoint and
// returns the media ID
func (w *WhatsAppCloudSender) UploadMedia(ctx context.Context, data []byte, filename, mimeType string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("messaging_product", "whatsapp"); err != nil {
		return "", fmt.Errorf("failed to write form: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to close form: %w", err)
	}

	url := fmt.Sprintf("%s/%s/media", w.baseURL, w.phoneNumberID)
	body, err := w.post(ctx, url, mw.FormDataContentType(), &buf)
	if err != nil {
		return "", fmt.Errorf("media upload: %w", err)
	}

	var media WhatsAppMediaResponse
	if err := json.Unmarshal(body, &media); err != nil {
		return "", fmt.Errorf("failed to unmarshal media response: %w", err)
	}
	if media.ID == "" {
		return "", fmt.Errorf("no media ID in response: %s", string(body))
	}
	return media.ID, nil
}

// sendMessage sends a message to WhatsApp Cloud API
func (w *WhatsAppCloudSender) sendMessage(ctx context.Context, message interface{}) (string, error) {
	url := fmt.Sprintf("%s/%s/messages", w.baseURL, w.phoneNumberID)

	jsonData, err := json.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	body, err := w.post(ctx, url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	var whatsappResp WhatsAppResponse
	if err := json.Unmarshal(body, &whatsappResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(whatsappResp.Messages) > 0 {
		return whatsappResp.Messages[0].ID, nil
	}

	return "", fmt.Errorf("no message ID in response")
}

func (w *WhatsAppCloudSender) post(ctx context.Context, url, contentType string, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+w.accessToken)
	req.Header.Set("Content-Type", contentType)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("WhatsApp API error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}
