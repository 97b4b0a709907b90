package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ppiankov/labsense/internal/cache"
	"github.com/ppiankov/labsense/internal/collab"
	"github.com/ppiankov/labsense/internal/model"
)

// SpeakerOptions configures a Speaker
type SpeakerOptions struct {
	Language   string
	AudioDir   string
	FilePrefix string
	Guard      *collab.Guard
	Cache      cache.Cache
	CacheTTL   time.Duration
	Logger     zerolog.Logger
}

// Speaker normalizes, chunks and synthesizes text into mp3 files
type Speaker struct {
	synth      Synthesizer
	normalizer *Normalizer
	opts       SpeakerOptions
}

// NewSpeaker creates a speaker. A nil synthesizer produces speech text and
// chunks without audio.
func NewSpeaker(synth Synthesizer, normalizer *Normalizer, opts SpeakerOptions) *Speaker {
	if normalizer == nil {
		normalizer = NewNormalizer("", "", 0)
	}
	if opts.AudioDir == "" {
		opts.AudioDir = "audio"
	}
	if opts.FilePrefix == "" {
		opts.FilePrefix = "summary"
	}
	if opts.Language == "" {
		opts.Language = "mr"
	}
	return &Speaker{synth: synth, normalizer: normalizer, opts: opts}
}

// Provider returns the synthesizer name
func (s *Speaker) Provider() string {
	if s.synth == nil {
		return "none"
	}
	return s.synth.Name()
}

// Speak synthesizes text chunk by chunk and writes prefix_i_<id>.mp3 files.
// If any chunk fails, files already written are removed and a speech
// unavailable error is returned.
func (s *Speaker) Speak(ctx context.Context, text string) (*model.SpeechOutput, error) {
	out := &model.SpeechOutput{
		Provider: s.Provider(),
		Text:     s.normalizer.Normalize(text),
		Chunks:   s.normalizer.Chunks(text),
	}
	if s.synth == nil || len(out.Chunks) == 0 {
		return out, nil
	}

	if err := os.MkdirAll(s.opts.AudioDir, 0755); err != nil {
		return out, model.NewSpeechUnavailableError(s.Provider(), fmt.Errorf("failed to create audio dir: %w", err))
	}

	for i, chunk := range out.Chunks {
		audio, err := s.synthesize(ctx, chunk)
		if err != nil {
			s.cleanup(out.AudioFiles)
			out.AudioFiles = nil
			return out, model.NewSpeechUnavailableError(s.Provider(), fmt.Errorf("chunk %d: %w", i+1, err))
		}

		name := fmt.Sprintf("%s_%d_%s.%s", s.opts.FilePrefix, i+1, uuid.New().String()[:8], audio.Format)
		path := filepath.Join(s.opts.AudioDir, name)
		if err := os.WriteFile(path, audio.Data, 0644); err != nil {
			s.cleanup(out.AudioFiles)
			out.AudioFiles = nil
			return out, model.NewSpeechUnavailableError(s.Provider(), fmt.Errorf("failed to write audio: %w", err))
		}

		out.AudioFiles = append(out.AudioFiles, path)
		s.opts.Logger.Debug().Str("file", path).Int("bytes", len(audio.Data)).Msg("audio chunk written")
	}

	return out, nil
}

func (s *Speaker) synthesize(ctx context.Context, chunk string) (*Audio, error) {
	var key string
	if s.opts.Cache != nil {
		key = cache.Key("speech", s.synth.Name(), s.opts.Language, chunk)
		if data, ok := s.opts.Cache.Get(ctx, key); ok {
			return &Audio{Data: data, Format: "mp3"}, nil
		}
	}

	var audio *Audio
	call := func(ctx context.Context) error {
		var err error
		audio, err = s.synth.Synthesize(ctx, chunk, s.opts.Language)
		return err
	}

	var err error
	if s.opts.Guard != nil {
		err = s.opts.Guard.Do(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.Set(ctx, key, audio.Data, s.opts.CacheTTL); err != nil {
			s.opts.Logger.Debug().Err(err).Msg("speech cache write failed")
		}
	}
	return audio, nil
}

func (s *Speaker) cleanup(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			s.opts.Logger.Warn().Err(err).Str("file", p).Msg("failed to remove partial audio")
		}
	}
}
