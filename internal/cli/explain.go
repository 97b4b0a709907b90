package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/labsense/internal/model"
	"github.com/ppiankov/labsense/internal/pipeline"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	language    string
	translator  string
	speechVia   string
	audioDir    string
	noCache     bool
	noFooter    bool
	httpProxy   string
	httpsProxy  string
	llmProvider string
	llmModel    string
	sendTo      string
	patientName string
)

// explainCmd represents the explain command
var explainCmd = &cobra.Command{
	Use:   "explain <report>",
	Short: "Explain a single lab report",
	Long: `Explain reads a lab report (PDF, HTML or text file, or an http(s) link) and:
- Recovers every test row: name, value, unit and printed reference range
- Marks each value below, within or above its printed range
- Writes a plain-language English explanation with a fixed disclaimer
- Translates it with numbers and units protected (optional)
- Synthesizes speech for the translation (optional)
- Sends the summary and audio over WhatsApp (optional)

Example:
  labsense explain report.pdf
  labsense explain report.pdf --lang hi --json out.json --md out.md
  labsense explain report.pdf --translator llm --llm-provider openai --llm-model gpt-4o-mini
  labsense explain report.pdf --send-to auto --name "Asha"`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)

	// Output flags
	explainCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	explainCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	explainCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	addCollaboratorFlags(explainCmd)
	explainCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout")

	// Messaging flags
	explainCmd.Flags().StringVar(&sendTo, "send-to", "", "send the summary over WhatsApp to this number, or \"auto\" for the number printed on the report")
	explainCmd.Flags().StringVar(&patientName, "name", "", "patient name used in the message")
}

// addCollaboratorFlags registers the translation, speech and HTTP flags
// shared by explain and batch
func addCollaboratorFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&language, "lang", "", "target language: mr, hi or en")
	cmd.Flags().StringVar(&translator, "translator", "", "translation backend: google, llm, echo or none")
	cmd.Flags().StringVar(&speechVia, "speech", "", "speech provider: google, openai or none")
	cmd.Flags().StringVar(&audioDir, "audio-dir", "", "directory for synthesized audio")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the translation and speech cache")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider for --translator llm (openai, anthropic, ollama, gemini)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

// applyFlags overlays explicitly set flags on the loaded configuration
func applyFlags(cmd *cobra.Command, cfg *model.Config) {
	changed := cmd.Flags().Changed

	if changed("lang") {
		cfg.Translation.Language = language
		cfg.Speech.Language = language
	}
	if changed("translator") {
		cfg.Translation.Backend = translator
	}
	if changed("speech") {
		cfg.Speech.Provider = speechVia
	}
	if changed("audio-dir") {
		cfg.Speech.AudioDir = audioDir
	}
	if changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	if changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
		if env, ok := llmKeyEnv[llmProvider]; ok && cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv(env)
		}
	}
	if changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if changed("send-to") {
		cfg.Messaging.Enabled = true
	}
	cfg.Output.Verbose = verbose
}

func runExplain(cmd *cobra.Command, args []string) error {
	source := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	p, err := pipeline.NewFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	report, err := p.Process(ctx, source)
	if err != nil {
		if report != nil {
			p.Renderer().RenderSummary(report)
		}
		return fmt.Errorf("explain failed: %w", err)
	}

	if sendTo != "" {
		if err := p.Deliver(ctx, report, sendTo, patientName); err != nil {
			fmt.Fprintf(os.Stderr, "✗ delivery: %v\n", err)
		}
	}

	if err := render(p, report, outJSON, outMD); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	p.Renderer().RenderSummary(report)
	if outJSON == "" && outMD == "" {
		fmt.Println()
		fmt.Println(report.ExplanationEN)
		if report.ExplanationLocalized != nil {
			fmt.Println()
			fmt.Println(report.ExplanationLocalized.Text)
		}
	}

	return nil
}

func render(p *pipeline.Pipeline, report *model.Report, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := p.Renderer().RenderJSON(report, jsonPath); err != nil {
			return err
		}
		logger.Info().Str("path", jsonPath).Msg("JSON report written")
	}
	if mdPath != "" {
		if err := p.Renderer().RenderMarkdown(report, mdPath); err != nil {
			return err
		}
		logger.Info().Str("path", mdPath).Msg("Markdown report written")
	}
	return nil
}
