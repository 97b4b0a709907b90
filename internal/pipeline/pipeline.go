package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ppiankov/labsense/internal/classify"
	"github.com/ppiankov/labsense/internal/explain"
	"github.com/ppiankov/labsense/internal/extract"
	"github.com/ppiankov/labsense/internal/extract/sources"
	"github.com/ppiankov/labsense/internal/logging"
	"github.com/ppiankov/labsense/internal/model"
	"github.com/ppiankov/labsense/internal/notify"
	"github.com/ppiankov/labsense/internal/speech"
	"github.com/ppiankov/labsense/internal/translate"
)

// Options carries the optional collaborators. A nil translator produces
// English only, a nil speaker skips speech, a nil deliverer disables sending.
type Options struct {
	Sources    *sources.Registry
	Fetcher    *Fetcher
	Translator *translate.Translator
	Speaker    *speech.Speaker
	Deliverer  *notify.Deliverer
	Logger     zerolog.Logger
}

// Pipeline orchestrates parse, classify, explain, translate and speech for
// one document at a time. It is safe for concurrent use by batch workers.
type Pipeline struct {
	sources    *sources.Registry
	fetcher    *Fetcher
	parser     *extract.RowParser
	generator  *explain.Generator
	translator *translate.Translator
	speaker    *speech.Speaker
	deliverer  *notify.Deliverer
	renderer   *Renderer
	config     *model.Config
	logger     zerolog.Logger
}

// New creates a pipeline with the given configuration and collaborators
func New(cfg *model.Config, opts Options) *Pipeline {
	if opts.Sources == nil {
		opts.Sources = sources.NewRegistry(sources.Options{PDFLicenseKey: cfg.Parse.PDFLicenseKey})
	}
	if opts.Fetcher == nil {
		opts.Fetcher = NewFetcher(&http.Client{Timeout: cfg.HTTP.Timeout}, cfg.HTTP.UserAgent, DefaultMaxBodyBytes, nil)
	}

	return &Pipeline{
		sources:    opts.Sources,
		fetcher:    opts.Fetcher,
		parser:     extract.NewRowParser(),
		generator:  explain.NewGenerator(),
		translator: opts.Translator,
		speaker:    opts.Speaker,
		deliverer:  opts.Deliverer,
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		config:     cfg,
		logger:     opts.Logger,
	}
}

// Renderer returns the pipeline's renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Process reads a report file, or downloads it when path is an http(s) link,
// and runs every stage on its lines
func (p *Pipeline) Process(ctx context.Context, path string) (*model.Report, error) {
	if isURL(path) {
		return p.processURL(ctx, path)
	}

	lines, err := p.sources.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return p.ProcessLines(ctx, path, lines)
}

func (p *Pipeline) processURL(ctx context.Context, rawURL string) (*model.Report, error) {
	result, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	p.logger.Debug().
		Str("url", result.FinalURL).
		Str("content_type", result.ContentType).
		Int("bytes", len(result.Body)).
		Msg("report downloaded")

	lines, err := p.sources.Read(ctx, result.Name, result.ContentType, bytes.NewReader(result.Body))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return p.ProcessLines(ctx, rawURL, lines)
}

// ProcessLines runs every stage on already extracted lines. Collaborator
// failures degrade the report and are listed in its stages; the only
// document-level failure is a document with no records. A cancelled
// context discards the run.
func (p *Pipeline) ProcessLines(ctx context.Context, source string, lines []string) (*model.Report, error) {
	logger := p.logger.With().Str("source", source).Logger()

	report := &model.Report{
		ID:     uuid.New().String(),
		Source: source,
		Phones: notify.ExtractPhones(joinLines(lines)),
	}

	// 1. Parse rows into records
	records, unparsed := p.parser.Parse(lines)
	report.Unparsed = unparsed
	for _, u := range unparsed {
		logger.Debug().
			Str("stage", logging.StageParse).
			Str("kind", string(model.KindUnparsedLine)).
			Int("line", u.Line).
			Str("reason", string(u.Reason)).
			Msg("line skipped")
	}
	if len(records) == 0 {
		err := model.NewNoRecordsError(source, len(unparsed))
		report.AddIssue(logging.StageParse, err)
		report.ProcessedAt = time.Now().UTC()
		logger.Warn().Str("stage", logging.StageParse).Str("kind", string(model.KindNoRecords)).Msg("no records recovered")
		return report, err
	}

	// 2. Classify against printed ranges
	report.Counts = classify.ClassifyAll(records)
	for i := range records {
		records[i].Category = string(explain.Categorize(records[i].Name))
		if err := classify.UnresolvedReason(records[i]); err != nil {
			logger.Debug().Str("stage", logging.StageClassify).Str("kind", string(model.KindOf(err))).Msg(err.Error())
		}
	}

	// 3. Explain in English
	exp := p.generator.Explain(records)
	report.ExplanationEN = exp.Text
	setExplanations(records, exp.Items, nil)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 4. Translate (optional)
	var localized *translate.Result
	if p.translator != nil {
		result, err := p.translator.TranslateSentences(ctx, exp.Sentences())
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			p.degrade(report, logger, logging.StageTranslate, err)
		} else {
			localized = &result
			report.ExplanationLocalized = result.Localized()
			setExplanations(records, exp.Items, result.Sentences)
			for _, f := range result.Flagged {
				p.degrade(report, logger, logging.StageTranslate,
					model.NewMaskRestoreError(f.Missing))
			}
		}
	}

	// 5. Speech for the localized text (optional)
	if p.speaker != nil && localized != nil {
		out, err := p.speaker.Speak(ctx, localized.Text)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		report.Speech = out
		if err != nil {
			p.degrade(report, logger, logging.StageSpeech, err)
		}
	}

	report.Records = records
	report.Abnormal, report.Uninterpretable = classify.Split(records)
	report.ProcessedAt = time.Now().UTC()

	logger.Info().
		Int("records", report.Counts.Total).
		Int("abnormal", report.Counts.Abnormal()).
		Int("unknown", report.Counts.Unknown).
		Int("degraded", len(report.Stages)).
		Msg("report processed")

	return report, nil
}

// Deliver sends the report summary and audio to a patient. "auto" picks the
// first mobile number found in the report text.
func (p *Pipeline) Deliver(ctx context.Context, report *model.Report, to, patientName string) error {
	if p.deliverer == nil {
		return fmt.Errorf("messaging is not enabled (set messaging.enabled and WhatsApp credentials)")
	}

	if to == "auto" {
		if len(report.Phones) == 0 {
			err := model.NewDeliveryFailedError("no mobile number found in the report", nil)
			report.AddIssue(logging.StageDeliver, err)
			return err
		}
		to = report.Phones[0]
	}

	summary := report.ExplanationEN
	if report.ExplanationLocalized != nil {
		summary = report.ExplanationLocalized.Text
	}
	var audio []string
	if report.Speech != nil {
		audio = report.Speech.AudioFiles
	}

	result, err := p.deliverer.Deliver(ctx, to, patientName, summary, audio)
	report.Delivery = result
	if err != nil {
		p.degrade(report, p.logger.With().Str("source", report.Source).Logger(), logging.StageDeliver, err)
		return err
	}
	return nil
}

func (p *Pipeline) degrade(report *model.Report, logger zerolog.Logger, stage string, err error) {
	report.AddIssue(stage, err)
	logger.Warn().
		Err(err).
		Str("stage", stage).
		Str("kind", string(model.KindOf(err))).
		Msg("stage degraded")
}

// setExplanations copies each item's sentence to its record. Localized
// sentences line up with the items, which come first in the narrative.
func setExplanations(records []model.LabTestRecord, items []explain.Item, localized []string) {
	byLine := make(map[int]int, len(records))
	for i, r := range records {
		byLine[r.Line] = i
	}

	for i, item := range items {
		idx, ok := byLine[item.Record.Line]
		if !ok {
			continue
		}
		if localized == nil {
			records[idx].ExplanationEN = item.Sentence
		} else if i < len(localized) {
			records[idx].ExplanationMR = localized[i]
		}
	}
}

func joinLines(lines []string) string {
	n := 0
	for _, l := range lines {
		n += len(l) + 1
	}
	b := make([]byte, 0, n)
	for _, l := range lines {
		b = append(b, l...)
		b = append(b, '\n')
	}
	return string(b)
}
