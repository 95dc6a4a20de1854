package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Log       LogConfig
	Server    ServerConfig
	Templates TemplatesConfig
	LLM       LLMConfig
	Extract   ExtractConfig
	Inbox     InboxConfig
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // text | json
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// TemplatesConfig points at the template definitions. DSN wins over Dir when both are set.
type TemplatesConfig struct {
	Dir string
	DSN string
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Enabled reports whether an external extractor can be constructed.
func (c LLMConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// ExtractConfig carries the tunables of the heuristic and validation stages.
type ExtractConfig struct {
	Workers           int
	DomesticVATPrefix string
	SumTolerance      float64
	DefaultCurrency   string // currency the model is steered towards

	AmountDecimalBonus    float64
	AmountGroupedBonus    float64
	AmountMagnitudeWeight float64
	AmountMagnitudeCap    float64
	LowQualityThreshold   float64
}

// InboxConfig drives the daemon's directory watcher.
type InboxConfig struct {
	Dir      string
	OutDir   string
	Formats  []string // export formats written to OutDir
	Debounce time.Duration
}

// LoadConfig reads configuration from an optional .env/config.env file and the environment.
// Environment variables take precedence.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Server: ServerConfig{
			GRPCAddr: v.GetString("GRPC_ADDR"),
		},
		Templates: TemplatesConfig{
			Dir: v.GetString("TEMPLATES_DIR"),
			DSN: v.GetString("TEMPLATES_DSN"),
		},
		LLM: LLMConfig{
			APIKey:      v.GetString("OPENAI_API_KEY"),
			BaseURL:     v.GetString("OPENAI_BASE_URL"),
			Model:       v.GetString("OPENAI_MODEL"),
			Temperature: float32(v.GetFloat64("OPENAI_TEMPERATURE")),
			Timeout:     v.GetDuration("OPENAI_TIMEOUT"),
		},
		Extract: ExtractConfig{
			Workers:               v.GetInt("EXTRACT_WORKERS"),
			DomesticVATPrefix:     strings.ToUpper(v.GetString("VAT_DOMESTIC_PREFIX")),
			SumTolerance:          v.GetFloat64("SUM_TOLERANCE"),
			DefaultCurrency:       strings.ToUpper(strings.TrimSpace(v.GetString("DEFAULT_CURRENCY"))),
			AmountDecimalBonus:    v.GetFloat64("AMOUNT_DECIMAL_BONUS"),
			AmountGroupedBonus:    v.GetFloat64("AMOUNT_GROUPED_BONUS"),
			AmountMagnitudeWeight: v.GetFloat64("AMOUNT_MAGNITUDE_WEIGHT"),
			AmountMagnitudeCap:    v.GetFloat64("AMOUNT_MAGNITUDE_CAP"),
			LowQualityThreshold:   v.GetFloat64("LOW_QUALITY_TEXT"),
		},
		Inbox: InboxConfig{
			Dir:      v.GetString("INBOX_DIR"),
			OutDir:   v.GetString("OUTBOX_DIR"),
			Formats:  splitList(v.GetString("OUTBOX_FORMATS")),
			Debounce: v.GetDuration("INBOX_DEBOUNCE"),
		},
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("TEMPLATES_DIR", "./templates")
	v.SetDefault("TEMPLATES_DSN", "")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI_TEMPERATURE", 0.0)
	v.SetDefault("OPENAI_TIMEOUT", 20*time.Second)
	v.SetDefault("EXTRACT_WORKERS", 4)
	v.SetDefault("VAT_DOMESTIC_PREFIX", "CZ")
	v.SetDefault("SUM_TOLERANCE", 0.03)
	v.SetDefault("DEFAULT_CURRENCY", "CZK")
	v.SetDefault("AMOUNT_DECIMAL_BONUS", 3.0)
	v.SetDefault("AMOUNT_GROUPED_BONUS", 2.0)
	v.SetDefault("AMOUNT_MAGNITUDE_WEIGHT", 0.25)
	v.SetDefault("AMOUNT_MAGNITUDE_CAP", 7.0)
	v.SetDefault("LOW_QUALITY_TEXT", 0.4)
	v.SetDefault("INBOX_DIR", "")
	v.SetDefault("OUTBOX_DIR", "")
	v.SetDefault("OUTBOX_FORMATS", "json")
	v.SetDefault("INBOX_DEBOUNCE", 500*time.Millisecond)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.Extract.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("EXTRACT_WORKERS must be positive, got %d", c.Extract.Workers), ErrInvalidInput)
	}
	if c.Extract.SumTolerance < 0 || c.Extract.SumTolerance > 1 {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("SUM_TOLERANCE out of range: %v", c.Extract.SumTolerance), ErrInvalidInput)
	}
	if len(c.Extract.DomesticVATPrefix) != 2 {
		return NewAppError("CONFIG_ERROR", "VAT_DOMESTIC_PREFIX must be a two-letter country code", ErrInvalidInput)
	}
	if !isCurrencyCode(c.Extract.DefaultCurrency) {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("DEFAULT_CURRENCY must be a three-letter code, got %q", c.Extract.DefaultCurrency), ErrInvalidInput)
	}
	if c.LLM.Enabled() && c.LLM.Timeout <= 0 {
		return NewAppError("CONFIG_ERROR", "OPENAI_TIMEOUT must be positive", ErrInvalidInput)
	}
	return nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
