package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string
	BaseURL       string
	Env           string
	SessionSecret string
	DatabaseURL   string

	GoogleClientID     string
	GoogleClientSecret string

	MicrosoftClientID     string
	MicrosoftClientSecret string
	GraphAPIEndpoint      string

	IMAPHost     string
	IMAPPort     string
	IMAPUsername string
	IMAPPassword string
	IMAPTLS      bool

	AIProvider          string
	AIKey               string
	AIModel             string
	AIRequestsPerMinute int

	MailTimeout time.Duration
	LLMTimeout  time.Duration

	LogLevel string
	LogFile  string

	SampleQuestionsFile string
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("MICROSOFT_CLIENT_ID", "")
	v.SetDefault("MICROSOFT_CLIENT_SECRET", "")
	v.SetDefault("GRAPH_API_ENDPOINT", "https://graph.microsoft.com/v1.0")
	v.SetDefault("IMAP_HOST", "")
	v.SetDefault("IMAP_PORT", "993")
	v.SetDefault("IMAP_USERNAME", "")
	v.SetDefault("IMAP_PASSWORD", "")
	v.SetDefault("IMAP_TLS", true)
	v.SetDefault("AI_PROVIDER", "groq")
	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("AI_MODEL", "")
	v.SetDefault("AI_REQUESTS_PER_MINUTE", 30)
	v.SetDefault("MAIL_TIMEOUT_SECONDS", 60)
	v.SetDefault("LLM_TIMEOUT_SECONDS", 60)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("SAMPLE_QUESTIONS_FILE", "")

	return &Config{
		Port:                  v.GetString("PORT"),
		BaseURL:               v.GetString("BASE_URL"),
		Env:                   v.GetString("ENV"),
		SessionSecret:         v.GetString("SESSION_SECRET"),
		DatabaseURL:           v.GetString("DATABASE_URL"),
		GoogleClientID:        v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:    v.GetString("GOOGLE_CLIENT_SECRET"),
		MicrosoftClientID:     v.GetString("MICROSOFT_CLIENT_ID"),
		MicrosoftClientSecret: v.GetString("MICROSOFT_CLIENT_SECRET"),
		GraphAPIEndpoint:      strings.TrimRight(v.GetString("GRAPH_API_ENDPOINT"), "/"),
		IMAPHost:              v.GetString("IMAP_HOST"),
		IMAPPort:              v.GetString("IMAP_PORT"),
		IMAPUsername:          v.GetString("IMAP_USERNAME"),
		IMAPPassword:          v.GetString("IMAP_PASSWORD"),
		IMAPTLS:               v.GetBool("IMAP_TLS"),
		AIProvider:            strings.ToLower(v.GetString("AI_PROVIDER")),
		AIKey:                 v.GetString("AI_API_KEY"),
		AIModel:               v.GetString("AI_MODEL"),
		AIRequestsPerMinute:   v.GetInt("AI_REQUESTS_PER_MINUTE"),
		MailTimeout:           time.Duration(v.GetInt("MAIL_TIMEOUT_SECONDS")) * time.Second,
		LLMTimeout:            time.Duration(v.GetInt("LLM_TIMEOUT_SECONDS")) * time.Second,
		LogLevel:              v.GetString("LOG_LEVEL"),
		LogFile:               v.GetString("LOG_FILE"),
		SampleQuestionsFile:   v.GetString("SAMPLE_QUESTIONS_FILE"),
	}, nil
}

// IsDevelopment reports whether the service runs with development defaults
// (console logging, insecure cookies).
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c *Config) MicrosoftEnabled() bool {
	return c.MicrosoftClientID != "" && c.MicrosoftClientSecret != ""
}

// IMAPEnabled reports whether mail is read from a fixed IMAP mailbox instead
// of the signed-in user's provider API.
func (c *Config) IMAPEnabled() bool {
	return c.IMAPHost != ""
}

func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.AIKey == "" {
		return fmt.Errorf("AI_API_KEY is required")
	}
	if c.MailTimeout <= 0 {
		return fmt.Errorf("MAIL_TIMEOUT_SECONDS must be positive")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT_SECONDS must be positive")
	}

	if !c.GoogleEnabled() && !c.MicrosoftEnabled() {
		return fmt.Errorf("GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET or MICROSOFT_CLIENT_ID/MICROSOFT_CLIENT_SECRET is required")
	}
	if c.IMAPEnabled() && c.IMAPUsername == "" {
		return fmt.Errorf("IMAP_USERNAME is required when IMAP_HOST is set")
	}

	return nil
}
