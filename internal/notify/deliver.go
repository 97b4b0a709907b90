package notify

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ppiankov/labsense/internal/collab"
	"github.com/ppiankov/labsense/internal/model"
	"github.com/ppiankov/labsense/internal/util"
)

// DeliveryOptions configures a Deliverer
type DeliveryOptions struct {
	TemplateName     string
	TemplateLanguage string
	PlainText        bool // send a session text message instead of the template
	MaxParamChars    int
	Format           PhoneFormat
	Guard            *collab.Guard
	Logger           zerolog.Logger
}

// Deliverer sends a report summary to a patient: the text template first,
// then the audio. Each message is attempted exactly once.
type Deliverer struct {
	messenger Messenger
	opts      DeliveryOptions
}

// NewDeliverer creates a deliverer over messenger
func NewDeliverer(messenger Messenger, opts DeliveryOptions) *Deliverer {
	if opts.TemplateName == "" {
		opts.TemplateName = "lab_summary_marathi"
	}
	if opts.TemplateLanguage == "" {
		opts.TemplateLanguage = "en"
	}
	if opts.MaxParamChars <= 0 {
		opts.MaxParamChars = 400
	}
	return &Deliverer{messenger: messenger, opts: opts}
}

// NewDelivererFromConfig builds a Cloud API deliverer from configuration
func NewDelivererFromConfig(cfg model.Config, guard *collab.Guard, logger zerolog.Logger) (*Deliverer, error) {
	client := util.NewHTTPClient(util.ClientOptions{
		Timeout:    cfg.Messaging.Timeout,
		UserAgent:  cfg.HTTP.UserAgent,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	})

	sender, err := NewWhatsAppCloudSender(WhatsAppConfig{
		BaseURL:       cfg.Messaging.BaseURL,
		AccessToken:   cfg.Messaging.AccessToken,
		PhoneNumberID: cfg.Messaging.PhoneNumberID,
	}, client)
	if err != nil {
		return nil, err
	}

	return NewDeliverer(sender, DeliveryOptions{
		TemplateName:     cfg.Messaging.TemplateName,
		TemplateLanguage: cfg.Messaging.TemplateLanguage,
		PlainText:        cfg.Messaging.PlainText,
		MaxParamChars:    cfg.Messaging.MaxParamChars,
		Format:           PhoneFormat{CountryCode: cfg.Messaging.CountryCode, NationalLength: cfg.Messaging.NationalLength},
		Guard:            guard,
		Logger:           logger,
	}), nil
}

// Deliver sends the summary and any audio files to phone. The result is
// always returned; a delivery failed error accompanies any message that
// did not go out.
func (d *Deliverer) Deliver(ctx context.Context, phone, patientName, summary string, audioFiles []string) (*model.DeliveryResult, error) {
	to, err := d.opts.Format.NormalizePhone(phone)
	if err != nil {
		return &model.DeliveryResult{To: phone, Detail: err.Error()}, model.NewDeliveryFailedError("invalid recipient", err)
	}

	result := &model.DeliveryResult{To: to}
	var details []string

	if patientName == "" {
		patientName = "Patient"
	}
	params := []string{
		SanitizeParam(patientName, d.opts.MaxParamChars),
		SanitizeParam(summary, d.opts.MaxParamChars),
	}

	kind := "template"
	if d.opts.PlainText {
		kind = "text"
	}

	var messageID string
	err = d.once(ctx, func(ctx context.Context) error {
		var err error
		if d.opts.PlainText {
			messageID, err = d.messenger.SendText(ctx, to, params[0]+",\n"+strings.TrimSpace(summary))
		} else {
			messageID, err = d.messenger.SendTemplate(ctx, to, d.opts.TemplateName, d.opts.TemplateLanguage, params)
		}
		return err
	})
	if err != nil {
		result.Detail = kind + " message failed: " + err.Error()
		d.opts.Logger.Warn().Err(err).Str("to", to).Msg("summary message failed")
		return result, model.NewDeliveryFailedError("summary message failed", err)
	}
	result.TextOK = true
	result.MessageID = messageID
	details = append(details, fmt.Sprintf("%s message sent (id=%s)", kind, messageID))

	if len(audioFiles) == 0 {
		result.Detail = strings.Join(append(details, "no audio to send"), "; ")
		return result, nil
	}

	audio, err := joinAudio(audioFiles)
	if err != nil {
		result.Detail = strings.Join(append(details, err.Error()), "; ")
		return result, model.NewDeliveryFailedError("audio message failed", err)
	}

	var audioID string
	err = d.once(ctx, func(ctx context.Context) error {
		var err error
		audioID, err = d.messenger.SendAudio(ctx, to, audio)
		return err
	})
	if err != nil {
		result.Detail = strings.Join(append(details, "audio message failed: "+err.Error()), "; ")
		d.opts.Logger.Warn().Err(err).Str("to", to).Msg("audio message failed")
		return result, model.NewDeliveryFailedError("audio message failed", err)
	}

	result.AudioOK = true
	result.Detail = strings.Join(append(details, fmt.Sprintf("audio message sent (id=%s)", audioID)), "; ")
	return result, nil
}

func (d *Deliverer) once(ctx context.Context, fn func(ctx context.Context) error) error {
	if d.opts.Guard == nil {
		return fn(ctx)
	}
	return d.opts.Guard.Once(ctx, fn)
}

// joinAudio concatenates mp3 chunk files; mp3 frames play back to back
func joinAudio(paths []string) ([]byte, error) {
	var audio []byte
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read audio: %w", err)
		}
		audio = append(audio, data...)
	}
	return audio, nil
}
