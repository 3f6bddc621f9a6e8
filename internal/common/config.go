package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/folio/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Input       InputConfig      `toml:"input"`
	Watcher     WatcherConfig    `toml:"watcher"`
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Sheets      SheetsConfig     `toml:"sheets"`
	DocAI       DocAIConfig      `toml:"docai"`
	Textract    TextractConfig   `toml:"textract"`
	OCR         OCRConfig        `toml:"ocr"`
	LLM         LLMConfig        `toml:"llm"`
	Extraction  ExtractionConfig `toml:"extraction"`
}

// InputConfig describes where scanned documents are picked up from
type InputConfig struct {
	Dir       string `toml:"dir" validate:"required"` // Base directory; one subfolder per sheet tab
	Extension string `toml:"extension"`               // File extension to process (default: ".pdf")
	Recursive bool   `toml:"recursive"`               // Walk tab folders recursively
}

// WatcherConfig controls watch mode behavior
type WatcherConfig struct {
	Enabled        bool   `toml:"enabled"`
	Debounce       string `toml:"debounce"`        // Wait after create event before processing (default: "2s")
	StablePoll     string `toml:"stable_poll"`     // Interval for file-size stability checks (default: "500ms")
	RescanSchedule string `toml:"rescan_schedule"` // Cron schedule for full input rescans (default: every 5 minutes)
}

// DebounceDuration returns the parsed debounce window. Validate has already
// checked the string; a zero duration falls back to the default.
func (c *WatcherConfig) DebounceDuration() time.Duration {
	if d, err := time.ParseDuration(c.Debounce); err == nil && d > 0 {
		return d
	}
	return 2 * time.Second
}

// StablePollDuration returns the parsed size-stability poll interval
func (c *WatcherConfig) StablePollDuration() time.Duration {
	if d, err := time.ParseDuration(c.StablePoll); err == nil && d > 0 {
		return d
	}
	return 500 * time.Millisecond
}

type ServerConfig struct {
	Enabled bool   `toml:"enabled"` // Serve status endpoints in watch mode
	Port    int    `toml:"port"`
	Host    string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// SheetsConfig contains spreadsheet output configuration
type SheetsConfig struct {
	Mode            string `toml:"mode" validate:"oneof=google excel"` // "google" (Sheets API) or "excel" (local workbook)
	SheetID         string `toml:"sheet_id"`                           // Google spreadsheet ID
	CredentialsFile string `toml:"credentials_file"`                   // Service account JSON key file
	DefaultTab      string `toml:"default_tab"`                        // Default worksheet tab (default: "Sheet1")
	DefaultFF       string `toml:"default_ff"`                         // Default folder/FF identifier (default: "FF1")
	ExcelPath       string `toml:"excel_path"`                         // Workbook path for excel mode
}

// DocAIConfig contains Google Document AI processor configuration
type DocAIConfig struct {
	Enabled     bool   `toml:"enabled"`
	ProjectID   string `toml:"project_id"`
	Location    string `toml:"location"` // Processor region (default: "us")
	ProcessorID string `toml:"processor_id"`
	Timeout     string `toml:"timeout"` // Per-request timeout (default: "2m")
	Endpoint    string `toml:"endpoint"` // Override; default derived from location
}

// TextractConfig contains AWS Textract fallback configuration
type TextractConfig struct {
	Enabled bool   `toml:"enabled"`
	Region  string `toml:"region"`  // AWS region (default: "us-east-1")
	Timeout string `toml:"timeout"` // Per-request timeout (default: "2m")
}

// OCRConfig contains local Tesseract OCR fallback configuration
type OCRConfig struct {
	Enabled       bool    `toml:"enabled"`
	DPI           int     `toml:"dpi"`            // Render resolution for rasterization (default: 300)
	Language      string  `toml:"language"`       // Tesseract language (default: "eng")
	MinConfidence float64 `toml:"min_confidence"` // Minimum line confidence for title candidates (default: 70)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderOpenAI uses the OpenAI API
	LLMProviderOpenAI LLMProvider = "openai"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	Enabled         bool         `toml:"enabled"`          // Use an LLM to structure OCR text into metadata fields
	DefaultProvider LLMProvider  `toml:"default_provider"` // "openai", "claude", or "gemini" (default: "openai")
	OpenAI          OpenAIConfig `toml:"openai"`
	Claude          ClaudeConfig `toml:"claude"`
	Gemini          GeminiConfig `toml:"gemini"`
}

// OpenAIConfig contains OpenAI API configuration
type OpenAIConfig struct {
	APIKey      string  `toml:"api_key"`     // OpenAI API key (OPENAI_API_KEY or config)
	Model       string  `toml:"model"`       // Model for metadata structuring (default: "gpt-4o-mini")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 1024)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "1m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.1)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key (ANTHROPIC_API_KEY or config)
	Model       string  `toml:"model"`       // Model for metadata structuring (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 1024)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "1m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.1)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Gemini API key (GEMINI_API_KEY or config)
	Model       string  `toml:"model"`       // Model for metadata structuring (default: "gemini-3-flash-preview")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "1m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "4s" for free tier)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.1)
}

// ExtractionConfig contains field post-processing limits
type ExtractionConfig struct {
	DescriptionLimit int `toml:"description_limit"` // Max description length in characters (default: 500)
	TitleMinLength   int `toml:"title_min_length"`  // Minimum title candidate length (default: 5)
	TitleMaxLines    int `toml:"title_max_lines"`   // First-page lines scanned for a title (default: 10)
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in folio.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Input: InputConfig{
			Dir:       "./input",
			Extension: ".pdf",
			Recursive: false,
		},
		Watcher: WatcherConfig{
			Enabled:        true,
			Debounce:       "2s",
			StablePoll:     "500ms",
			RescanSchedule: "0 */5 * * * *", // Every 5 minutes (cron with seconds)
		},
		Server: ServerConfig{
			Enabled: false, // Status endpoints are opt-in
			Port:    8080,
			Host:    "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Sheets: SheetsConfig{
			Mode:       "google",
			DefaultTab: "Sheet1",
			DefaultFF:  "FF1",
			ExcelPath:  "./data/folio.xlsx",
		},
		DocAI: DocAIConfig{
			Enabled:  true,
			Location: "us",
			Timeout:  "2m",
		},
		Textract: TextractConfig{
			Enabled: true,
			Region:  "us-east-1",
			Timeout: "2m",
		},
		OCR: OCRConfig{
			Enabled:       true,
			DPI:           300,
			Language:      "eng",
			MinConfidence: 70,
		},
		LLM: LLMConfig{
			Enabled:         true,
			DefaultProvider: LLMProviderOpenAI,
			OpenAI: OpenAIConfig{
				Model:       "gpt-4o-mini",
				MaxTokens:   1024,
				Timeout:     "1m",
				RateLimit:   "1s",
				Temperature: 0.1,
			},
			Claude: ClaudeConfig{
				Model:       "claude-haiku-3-5-20241022",
				MaxTokens:   1024,
				Timeout:     "1m",
				RateLimit:   "1s",
				Temperature: 0.1,
			},
			Gemini: GeminiConfig{
				Model:       "gemini-3-flash-preview",
				Timeout:     "1m",
				RateLimit:   "4s",
				Temperature: 0.1,
			},
		},
		Extraction: ExtractionConfig{
			DescriptionLimit: 500,
			TitleMinLength:   5,
			TitleMaxLines:    10,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for structural errors
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := time.ParseDuration(c.Watcher.Debounce); err != nil {
		return fmt.Errorf("invalid watcher.debounce %q: %w", c.Watcher.Debounce, err)
	}
	if _, err := time.ParseDuration(c.Watcher.StablePoll); err != nil {
		return fmt.Errorf("invalid watcher.stable_poll %q: %w", c.Watcher.StablePoll, err)
	}
	if !strings.HasPrefix(c.Input.Extension, ".") {
		return fmt.Errorf("input.extension must start with a dot, got %q", c.Input.Extension)
	}
	return nil
}

// APIEndpoint returns the regional Document AI API endpoint
func (c *DocAIConfig) APIEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fmt.Sprintf("%s-documentai.googleapis.com:443", c.Location)
}

// ProcessorName returns the full processor resource name
func (c *DocAIConfig) ProcessorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

// applyEnvOverrides applies environment variable overrides to config.
// Both FOLIO_* names and the legacy unprefixed names from the original
// deployment (INPUT_DIR, SHEET_ID, GCP_PROJECT_ID, ...) are honored.
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: FOLIO_ENV, fallback: GO_ENV)
	if env := os.Getenv("FOLIO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Input configuration
	if dir := os.Getenv("INPUT_DIR"); dir != "" {
		config.Input.Dir = dir
	}
	if dir := os.Getenv("FOLIO_INPUT_DIR"); dir != "" {
		config.Input.Dir = dir
	}
	if ext := os.Getenv("FOLIO_INPUT_EXTENSION"); ext != "" {
		config.Input.Extension = ext
	}

	// Server configuration
	if port := os.Getenv("FOLIO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("FOLIO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if enabled := os.Getenv("FOLIO_SERVER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Server.Enabled = e
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("FOLIO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("FOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("FOLIO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("FOLIO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Sheets configuration
	if sheetID := os.Getenv("SHEET_ID"); sheetID != "" {
		config.Sheets.SheetID = sheetID
	}
	if tab := os.Getenv("SHEET_TAB"); tab != "" {
		config.Sheets.DefaultTab = tab
	}
	if ff := os.Getenv("FF_NUMBER"); ff != "" {
		config.Sheets.DefaultFF = ff
	}
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" && config.Sheets.CredentialsFile == "" {
		config.Sheets.CredentialsFile = credsFile
	}
	if mode := os.Getenv("FOLIO_SHEETS_MODE"); mode != "" {
		config.Sheets.Mode = mode
	}
	if path := os.Getenv("FOLIO_SHEETS_EXCEL_PATH"); path != "" {
		config.Sheets.ExcelPath = path
	}

	// Document AI configuration
	if projectID := os.Getenv("GCP_PROJECT_ID"); projectID != "" {
		config.DocAI.ProjectID = projectID
	}
	if location := os.Getenv("GCP_LOCATION"); location != "" {
		config.DocAI.Location = location
	}
	if processorID := os.Getenv("DOCAI_PROCESSOR"); processorID != "" {
		config.DocAI.ProcessorID = processorID
	}
	if enabled := os.Getenv("FOLIO_DOCAI_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.DocAI.Enabled = e
		}
	}

	// Textract configuration
	if region := os.Getenv("AWS_REGION"); region != "" {
		config.Textract.Region = region
	}
	if enabled := os.Getenv("FOLIO_TEXTRACT_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Textract.Enabled = e
		}
	}

	// OCR configuration
	if enabled := os.Getenv("FOLIO_OCR_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.OCR.Enabled = e
		}
	}
	if dpi := os.Getenv("FOLIO_OCR_DPI"); dpi != "" {
		if d, err := strconv.Atoi(dpi); err == nil {
			config.OCR.DPI = d
		}
	}
	if lang := os.Getenv("FOLIO_OCR_LANGUAGE"); lang != "" {
		config.OCR.Language = lang
	}

	// LLM configuration (API keys resolve at service construction; see ResolveAPIKey)
	if provider := os.Getenv("FOLIO_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if enabled := os.Getenv("FOLIO_LLM_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.LLM.Enabled = e
		}
	}
}

// ResolveAPIKey resolves an API key by name with environment variable priority.
// Resolution order: environment variables -> KV store -> config fallback -> error.
// kvStorage can be nil (resolution then skips the store).
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"openai_api_key":    {"OPENAI_API_KEY", "FOLIO_OPENAI_API_KEY"},
		"anthropic_api_key": {"ANTHROPIC_API_KEY", "FOLIO_CLAUDE_API_KEY"},
		"gemini_api_key":    {"GEMINI_API_KEY", "FOLIO_GEMINI_API_KEY"},
	}

	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}
