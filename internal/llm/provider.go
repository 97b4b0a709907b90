package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Provider defines the interface for LLM providers used as translators
type Provider interface {
	// Name returns the provider name
	Name() string

	// Translate renders masked English text into the target language
	Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// TranslateRequest contains the input for LLM translation
type TranslateRequest struct {
	// Text carries ⟦...⟧ placeholder tokens that must survive unchanged
	Text string

	// Source and Target are ISO 639-1 codes ("en", "mr", "hi")
	Source string
	Target string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// TranslateResponse contains the LLM's translation
type TranslateResponse struct {
	// Text is the translated text, tokens still in place
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "gemini", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic/Gemini
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictTokens rejects responses carrying placeholder tokens the input never had
	StrictTokens bool

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:     "", // Disabled by default
		Model:        "",
		Timeout:      30,
		StrictTokens: true,
		MaxTokens:    1000,
	}
}

// systemPrompt frames every translation call
const systemPrompt = "You are a careful medical report translator. You translate plain-language lab report summaries for patients and never add, remove or change medical content."

// languageNames maps language codes to prompt-friendly names
var languageNames = map[string]string{
	"en": "English",
	"mr": "Marathi",
	"hi": "Hindi",
}

// LanguageName returns the English name of a language code
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// BuildPrompt constructs the default translation prompt with strict token rules
func BuildPrompt(req TranslateRequest) string {
	source := req.Source
	if source == "" {
		source = "en"
	}

	return fmt.Sprintf(`Translate the following text from %s to %s.

CRITICAL RULES:
1. Placeholders look like ⟦A⟧, ⟦B⟧, ⟦AA⟧. Copy every placeholder exactly, byte for byte, including the brackets.
2. Never translate, transliterate, reorder the letters of, merge or drop a placeholder.
3. Do not add numbers, units, causes, advice or any information that is not in the text.
4. Keep sentence boundaries. Output only the translation, with no notes or quotes.

Text:
%s`, LanguageName(source), LanguageName(req.Target), req.Text)
}

// tokenPattern matches placeholder tokens in model output
var tokenPattern = regexp.MustCompile(`⟦\s*([A-Za-z]+)\s*⟧`)

// extractTokens returns the distinct placeholder keys in text
func extractTokens(text string) []string {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)

	seen := make(map[string]bool)
	var unique []string
	for _, m := range matches {
		key := strings.ToUpper(m[1])
		if !seen[key] {
			seen[key] = true
			unique = append(unique, key)
		}
	}

	return unique
}

// verifyTokens fails when the output carries a token absent from the input.
// Dropped tokens are left for the caller's unmasking step to report.
func verifyTokens(input, output string) error {
	allowed := extractTokens(input)
	for _, tok := range extractTokens(output) {
		if !contains(allowed, tok) {
			return fmt.Errorf("TOKEN LEAK: LLM invented placeholder ⟦%s⟧", tok)
		}
	}
	return nil
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// resolve fills request defaults from provider config
func resolve(req TranslateRequest, config Config, defaultModel string) (prompt, model string, maxTokens int) {
	prompt = req.Prompt
	if prompt == "" {
		prompt = BuildPrompt(req)
	}

	model = req.Model
	if model == "" {
		model = config.Model
	}
	if model == "" {
		model = defaultModel
	}

	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1000
	}

	return prompt, model, maxTokens
}
