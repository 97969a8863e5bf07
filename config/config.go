package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig       `envPrefix:"COACH_APP_"`
	Server    ServerConfig    `envPrefix:"COACH_SERVER_"`
	Log       LogConfig       `envPrefix:"COACH_LOG_"`
	Database  DatabaseConfig  `envPrefix:"COACH_DB_"`
	Session   SessionConfig   `envPrefix:"COACH_SESSION_"`
	Auth      AuthConfig      `envPrefix:"COACH_AUTH_"`
	Mail      MailConfig      `envPrefix:"SMTP_"`
	Coach     CoachConfig     `envPrefix:"COACH_LLM_"`
	Admin     AdminConfig     `envPrefix:"COACH_ADMIN_"`
	RateLimit RateLimitConfig `envPrefix:"COACH_RATELIMIT_"`
	Templates TemplatesConfig `envPrefix:"COACH_TEMPLATES_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"JTBD Journey Coach"`
	URL  string `env:"URL" envDefault:"http://localhost:5055"`
}

type ServerConfig struct {
	Port string `env:"PORT" envDefault:"5055"`
	Host string `env:"HOST" envDefault:"0.0.0.0"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

type DatabaseConfig struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DSN" envDefault:"coach.db"`
}

type SessionConfig struct {
	Name     string        `env:"NAME" envDefault:"coach_session"`
	Store    string        `env:"STORE" envDefault:"database"`
	MaxAge   time.Duration `env:"MAX_AGE" envDefault:"168h"`
	Path     string        `env:"PATH" envDefault:"/"`
	Domain   string        `env:"DOMAIN" envDefault:""`
	Secure   bool          `env:"SECURE" envDefault:"false"`
	HttpOnly bool          `env:"HTTP_ONLY" envDefault:"true"`
	SameSite string        `env:"SAME_SITE" envDefault:"lax"`
}

type AuthConfig struct {
	MinPasswordLength int           `env:"MIN_PASSWORD_LENGTH" envDefault:"8"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"10"`
	ResetTokenTTL     time.Duration `env:"RESET_TOKEN_TTL" envDefault:"60m"`
	VerifyTokenTTL    time.Duration `env:"VERIFY_TOKEN_TTL" envDefault:"60m"`
	TokenLength       int           `env:"TOKEN_LENGTH" envDefault:"32"`
}

type MailConfig struct {
	Host        string `env:"HOST"`
	Port        int    `env:"PORT" envDefault:"587"`
	Username    string `env:"USER"`
	Password    string `env:"PASS"`
	Encryption  string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress string `env:"FROM,expand" envDefault:"${EMAIL_FROM}"`
	FromName    string `env:"FROM_NAME"`
	ReplyTo     string `env:"REPLY_TO"`
}

type CoachConfig struct {
	APIKey           string  `env:"API_KEY,expand" envDefault:"${OPENAI_API_KEY}"`
	BaseURL          string  `env:"BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model            string  `env:"MODEL" envDefault:"gpt-4o-mini"`
	FallbackModel    string  `env:"FALLBACK_MODEL" envDefault:"gpt-4o-mini"`
	SystemPromptPath string  `env:"SYSTEM_PROMPT_PATH" envDefault:"system_prompt.md"`
	TaskTemperature  float64 `env:"TASK_TEMPERATURE" envDefault:"0.3"`
	ChatTemperature  float64 `env:"CHAT_TEMPERATURE" envDefault:"0.2"`
}

type AdminConfig struct {
	SetupToken string `env:"SETUP_TOKEN"`
}

type RateLimitConfig struct {
	Enabled bool          `env:"ENABLED" envDefault:"true"`
	Rate    int           `env:"RATE" envDefault:"10"`
	Period  time.Duration `env:"PERIOD" envDefault:"1m"`
}

type TemplatesConfig struct {
	Dir       string `env:"DIR" envDefault:"templates"`
	Extension string `env:"EXTENSION" envDefault:".html"`
	WebDir    string `env:"WEB_DIR" envDefault:"web"`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	return env.Parse(cfg)
}
