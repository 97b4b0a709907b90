package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/labsense/internal/collab"
	"github.com/ppiankov/labsense/internal/model"
	"github.com/ppiankov/labsense/internal/util"
)

// DefaultGoogleTTSURL is the public translate_tts endpoint
const DefaultGoogleTTSURL = "https://translate.google.com/translate_tts"

// maxAudioBytes bounds one synthesized chunk
const maxAudioBytes = 10 << 20

// Audio is one synthesized chunk
type Audio struct {
	Data   []byte
	Format string // file extension, "mp3"
}

// Synthesizer turns text into audio
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text, lang string) (*Audio, error)
}

// GoogleTTS calls the translate_tts endpoint used by gTTS
type GoogleTTS struct {
	baseURL string
	client  *http.Client
}

// NewGoogleTTS creates a synthesizer. An empty baseURL uses the public endpoint.
func NewGoogleTTS(baseURL string, client *http.Client) *GoogleTTS {
	if baseURL == "" {
		baseURL = DefaultGoogleTTSURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &GoogleTTS{baseURL: baseURL, client: client}
}

// Name implements Synthesizer
func (g *GoogleTTS) Name() string { return "google" }

// Synthesize implements Synthesizer
func (g *GoogleTTS) Synthesize(ctx context.Context, text, lang string) (*Audio, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", lang)
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, collab.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("tts error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, collab.Permanent(err)
		}
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio response")
	}

	return &Audio{Data: data, Format: "mp3"}, nil
}

// OpenAITTS uses the OpenAI speech endpoint
type OpenAITTS struct {
	client *openai.Client
	model  string
	voice  string
}

// NewOpenAITTS creates a synthesizer
func NewOpenAITTS(apiKey, baseURL, model, voice string, client *http.Client) (*OpenAITTS, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if client != nil {
		clientConfig.HTTPClient = client
	}
	if model == "" {
		model = string(openai.TTSModel1)
	}
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}

	return &OpenAITTS{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		voice:  voice,
	}, nil
}

// Name implements Synthesizer
func (o *OpenAITTS) Name() string { return "openai" }

// Synthesize implements Synthesizer. The model detects the language from
// the text, lang is not sent.
func (o *OpenAITTS) Synthesize(ctx context.Context, text, lang string) (*Audio, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Input:          text,
		Voice:          openai.SpeechVoice(o.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI speech error: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(io.LimitReader(resp, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio response")
	}

	return &Audio{Data: data, Format: "mp3"}, nil
}

// NewSynthesizer builds the configured synthesizer. "none" and "" return nil:
// the pipeline then delivers text only.
func NewSynthesizer(cfg model.Config) (Synthesizer, error) {
	client := util.NewHTTPClient(util.ClientOptions{
		Timeout:    cfg.Speech.Timeout,
		UserAgent:  cfg.HTTP.UserAgent,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	})

	switch strings.ToLower(cfg.Speech.Provider) {
	case "", "none":
		return nil, nil

	case "google", "gtts":
		return NewGoogleTTS(cfg.Speech.BaseURL, client), nil

	case "openai":
		apiKey := cfg.Speech.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		return NewOpenAITTS(apiKey, cfg.Speech.BaseURL, cfg.Speech.Model, cfg.Speech.Voice, client)

	default:
		return nil, fmt.Errorf("unknown speech provider: %s (supported: google, openai, none)", cfg.Speech.Provider)
	}
}
