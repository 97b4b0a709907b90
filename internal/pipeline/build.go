package pipeline

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ppiankov/labsense/internal/cache"
	"github.com/ppiankov/labsense/internal/collab"
	"github.com/ppiankov/labsense/internal/extract/sources"
	"github.com/ppiankov/labsense/internal/model"
	"github.com/ppiankov/labsense/internal/notify"
	"github.com/ppiankov/labsense/internal/speech"
	"github.com/ppiankov/labsense/internal/translate"
	"github.com/ppiankov/labsense/internal/util"
	"github.com/ppiankov/labsense/internal/worker"
)

// NewFromConfig wires the collaborators described by cfg. Guards and the
// rate limiter are shared, so every document in a batch sees the same
// breaker state.
func NewFromConfig(cfg *model.Config, logger zerolog.Logger) (*Pipeline, error) {
	c, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Warn().Err(err).Msg("cache unavailable, continuing without")
		c = nil
	}

	limiter := worker.NewLimiter(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst)
	opts := Options{
		Sources: sources.NewRegistry(sources.Options{PDFLicenseKey: cfg.Parse.PDFLicenseKey}),
		Logger:  logger,
	}

	fetchClient := util.NewHTTPClient(util.ClientOptions{
		Timeout:    cfg.HTTP.Timeout,
		UserAgent:  cfg.HTTP.UserAgent,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	})
	opts.Fetcher = NewFetcher(fetchClient, cfg.HTTP.UserAgent, DefaultMaxBodyBytes,
		collab.FromConfig("fetch", "reports", 0, cfg.HTTP, limiter, logger))

	backend, err := translate.NewBackend(*cfg)
	if err != nil {
		return nil, err
	}
	if backend != nil {
		guard := collab.FromConfig("translate:"+backend.Name(), translationTarget(cfg, backend),
			cfg.Translation.Timeout, cfg.HTTP, limiter, logger)
		backend = translate.Cached(translate.Guarded(backend, guard), c, cfg.Cache.DiskTTL, logger)

		opts.Translator = translate.New(backend, translate.Options{
			Language:      cfg.Translation.Language,
			MaxChunkChars: cfg.Translation.MaxChunkChars,
			Logger:        logger,
		})
	}

	synth, err := speech.NewSynthesizer(*cfg)
	if err != nil {
		return nil, err
	}
	speakerOpts := speech.SpeakerOptions{
		Language:   cfg.Speech.Language,
		AudioDir:   cfg.Speech.AudioDir,
		FilePrefix: cfg.Speech.FilePrefix,
		Cache:      c,
		CacheTTL:   cfg.Cache.DiskTTL,
		Logger:     logger,
	}
	if synth != nil {
		speakerOpts.Guard = collab.FromConfig("speech:"+synth.Name(), speechTarget(cfg),
			cfg.Speech.Timeout, cfg.HTTP, limiter, logger)
	}
	opts.Speaker = speech.NewSpeaker(synth,
		speech.NewNormalizer(cfg.Speech.PointWord, cfg.Speech.RangeWord, cfg.Speech.MaxChunkChars),
		speakerOpts)

	if cfg.Messaging.Enabled {
		guard := collab.FromConfig("whatsapp", cfg.Messaging.BaseURL, cfg.Messaging.Timeout, cfg.HTTP, limiter, logger)
		deliverer, err := notify.NewDelivererFromConfig(*cfg, guard, logger)
		if err != nil {
			return nil, fmt.Errorf("messaging: %w", err)
		}
		opts.Deliverer = deliverer
	}

	return New(cfg, opts), nil
}

func translationTarget(cfg *model.Config, backend translate.Backend) string {
	if cfg.Translation.BaseURL != "" {
		return cfg.Translation.BaseURL
	}
	if strings.EqualFold(cfg.Translation.Backend, "google") {
		return translate.DefaultGoogleURL
	}
	if cfg.LLM.BaseURL != "" {
		return cfg.LLM.BaseURL
	}
	return backend.Name()
}

func speechTarget(cfg *model.Config) string {
	if cfg.Speech.BaseURL != "" {
		return cfg.Speech.BaseURL
	}
	switch strings.ToLower(cfg.Speech.Provider) {
	case "openai":
		return "https://api.openai.com/v1"
	default:
		return speech.DefaultGoogleTTSURL
	}
}
