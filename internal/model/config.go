package model

import "time"

// Config is the complete labsense configuration
type Config struct {
	Parse       ParseConfig       `yaml:"parse" mapstructure:"parse"`
	Translation TranslationConfig `yaml:"translation" mapstructure:"translation"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Speech      SpeechConfig      `yaml:"speech" mapstructure:"speech"`
	Messaging   MessagingConfig   `yaml:"messaging" mapstructure:"messaging"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// ParseConfig controls line extraction
type ParseConfig struct {
	// PDFLicenseKey is the metered key for the PDF text extractor (or UNIPDF_LICENSE_KEY)
	PDFLicenseKey string `yaml:"pdf_license_key,omitempty" mapstructure:"pdf_license_key"`
}

// TranslationConfig controls the glossary translator
type TranslationConfig struct {
	Backend       string        `yaml:"backend" mapstructure:"backend"`   // google, llm, echo, none
	Language      string        `yaml:"language" mapstructure:"language"` // mr, hi
	BaseURL       string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	MaxChunkChars int           `yaml:"max_chunk_chars" mapstructure:"max_chunk_chars"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LLMConfig configures an LLM used as a translation backend
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, gemini
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SpeechConfig controls speech normalization and synthesis
type SpeechConfig struct {
	Provider      string        `yaml:"provider" mapstructure:"provider"` // google, openai, none
	Language      string        `yaml:"language" mapstructure:"language"`
	Voice         string        `yaml:"voice,omitempty" mapstructure:"voice"`
	Model         string        `yaml:"model,omitempty" mapstructure:"model"`
	APIKey        string        `yaml:"-" mapstructure:"api_key"`
	BaseURL       string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	MaxChunkChars int           `yaml:"max_chunk_chars" mapstructure:"max_chunk_chars"`
	PointWord     string        `yaml:"point_word" mapstructure:"point_word"`
	RangeWord     string        `yaml:"range_word" mapstructure:"range_word"`
	AudioDir      string        `yaml:"audio_dir" mapstructure:"audio_dir"`
	FilePrefix    string        `yaml:"file_prefix" mapstructure:"file_prefix"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// MessagingConfig configures WhatsApp Cloud API delivery
type MessagingConfig struct {
	Enabled          bool          `yaml:"enabled" mapstructure:"enabled"`
	BaseURL          string        `yaml:"base_url" mapstructure:"base_url"`
	AccessToken      string        `yaml:"-" mapstructure:"access_token"`
	PhoneNumberID    string        `yaml:"phone_number_id,omitempty" mapstructure:"phone_number_id"`
	TemplateName     string        `yaml:"template_name" mapstructure:"template_name"`
	TemplateLanguage string        `yaml:"template_language" mapstructure:"template_language"`
	PlainText        bool          `yaml:"plain_text" mapstructure:"plain_text"` // session text instead of the template
	CountryCode      string        `yaml:"country_code" mapstructure:"country_code"`
	NationalLength   int           `yaml:"national_length" mapstructure:"national_length"`
	MaxParamChars    int           `yaml:"max_param_chars" mapstructure:"max_param_chars"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// CacheConfig configures caching of collaborator results
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend       string        `yaml:"backend" mapstructure:"backend"` // memory, layered, redis
	Dir           string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL     time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL       time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	RedisAddr     string        `yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`
	RedisPassword string        `yaml:"-" mapstructure:"redis_password"`
	RedisDB       int           `yaml:"redis_db" mapstructure:"redis_db"`
}

// HTTPConfig controls outbound collaborator calls
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	Retries           int           `yaml:"retries" mapstructure:"retries"`
	RetryBackoff      time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
	BreakerFailures   int           `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerCooldown   time.Duration `yaml:"breaker_cooldown" mapstructure:"breaker_cooldown"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// LogConfig controls the structured logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Translation: TranslationConfig{
			Backend:       "google",
			Language:      "mr",
			MaxChunkChars: 800,
			Timeout:       20 * time.Second,
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 1000,
		},
		Speech: SpeechConfig{
			Provider:      "google",
			Language:      "mr",
			MaxChunkChars: 220,
			PointWord:     "point",
			RangeWord:     "to",
			AudioDir:      "audio",
			FilePrefix:    "summary",
			Timeout:       30 * time.Second,
		},
		Messaging: MessagingConfig{
			Enabled:          false,
			BaseURL:          "https://graph.facebook.com/v22.0",
			TemplateName:     "lab_summary_marathi",
			TemplateLanguage: "en",
			CountryCode:      "91",
			NationalLength:   10,
			MaxParamChars:    400,
			Timeout:          30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Backend:   "layered",
			Dir:       ".labsense-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:           30 * time.Second,
			UserAgent:         "labsense/0.1 (+https://github.com/ppiankov/labsense)",
			RequestsPerSecond: 2,
			Burst:             4,
			Retries:           1,
			RetryBackoff:      500 * time.Millisecond,
			BreakerFailures:   3,
			BreakerCooldown:   time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
