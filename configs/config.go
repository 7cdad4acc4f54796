package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultLanguage           = "ru"
	DefaultTimezone           = "UTC"
	DefaultInitialGenerations = 3
	DefaultMinRunInterval     = 15 * time.Minute
	DefaultSearchRecency      = 24 * time.Hour
	DefaultTitleMaxLength     = 150
	DefaultBodyMaxLength      = 3000
	DefaultModerationTTL      = 168 * time.Hour
)

var DefaultVideoDomains = []string{
	"youtube.com",
	"youtu.be",
	"vimeo.com",
	"tiktok.com",
	"rutube.ru",
	"dailymotion.com",
	"vk.com/video",
	"twitch.tv",
}

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Telegram struct {
	BotToken string `validate:"required"`
	AppID    int    `validate:"required,gt=0"`
	AppHash  string `validate:"required"`
}

type LLM struct {
	Provider     string `validate:"oneof=openai anthropic"`
	OpenAIKey    string `validate:"required_if=Provider openai"`
	AnthropicKey string `validate:"required_if=Provider anthropic"`
	Timeout      time.Duration
}

type Search struct {
	Provider      string `validate:"oneof=serper google"`
	SerperKey     string `validate:"required_if=Provider serper"`
	GoogleKey     string `validate:"required_if=Provider google"`
	GoogleCX      string `validate:"required_if=Provider google"`
	Recency       time.Duration
	Timeout       time.Duration
	ImageTimeout  time.Duration
	VideoDomains  []string
	ResultsPerRun int64 `validate:"gt=0,lte=100"`
}

type Fetch struct {
	Timeout     time.Duration
	MaxAttempts uint `validate:"gt=0"`
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxChars    int `validate:"gt=0"`
}

type Pipeline struct {
	DefaultLanguage    string `validate:"required"`
	DefaultTimezone    string `validate:"required"`
	InitialGenerations int    `validate:"gte=0"`
	MinRunInterval     time.Duration
	TitleMaxLength     int `validate:"gt=0"`
	BodyMaxLength      int `validate:"gt=0"`
	JobTimeout         time.Duration
	LockTTL            time.Duration
	DeliveryTimeout    time.Duration
	ModerationTTL      time.Duration
	MirrorImages       bool
}

type Config struct {
	PostgresURI string `validate:"required"`
	RedisURI    string `validate:"required"`
	SecretKey   string `validate:"required,len=32"`
	AdminKey    string
	TokenTTL    time.Duration
	Port        string `validate:"required"`
	Concurrency int    `validate:"gt=0"`
	R2          R2
	Telegram    Telegram
	LLM         LLM
	Search      Search
	Fetch       Fetch
	Pipeline    Pipeline
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI: getEnv("POSTGRES_URI", ""),
		RedisURI:    getEnv("REDIS_URI", ""),
		SecretKey:   getEnv("SECRET_KEY", ""),
		AdminKey:    getEnv("ADMIN_KEY", ""),
		TokenTTL:    getEnvDuration("TOKEN_TTL", 30*24*time.Hour),
		Port:        getEnv("PORT", "3000"),
		Concurrency: getEnvInt("WORKER_CONCURRENCY", 10),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		Telegram: Telegram{
			BotToken: getEnv("BOT_TOKEN", ""),
			AppID:    getEnvInt("TELEGRAM_APP_ID", 0),
			AppHash:  getEnv("TELEGRAM_APP_HASH", ""),
		},
		LLM: LLM{
			Provider:     getEnv("LLM_PROVIDER", "openai"),
			OpenAIKey:    getEnv("OPENAI_API_KEY", ""),
			AnthropicKey: getEnv("ANTHROPIC_API_KEY", ""),
			Timeout:      getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Search: Search{
			Provider:      getEnv("SEARCH_PROVIDER", "serper"),
			SerperKey:     getEnv("SERPER_API_KEY", ""),
			GoogleKey:     getEnv("GOOGLE_API_KEY", ""),
			GoogleCX:      getEnv("GOOGLE_CX", ""),
			Recency:       getEnvDuration("SEARCH_RECENCY", DefaultSearchRecency),
			Timeout:       getEnvDuration("SEARCH_TIMEOUT", 30*time.Second),
			ImageTimeout:  getEnvDuration("IMAGE_TIMEOUT", 30*time.Second),
			VideoDomains:  getEnvList("VIDEO_DOMAINS", DefaultVideoDomains),
			ResultsPerRun: int64(getEnvInt("SEARCH_RESULTS", 10)),
		},
		Fetch: Fetch{
			Timeout:     getEnvDuration("FETCH_TIMEOUT", 20*time.Second),
			MaxAttempts: uint(getEnvInt("FETCH_MAX_ATTEMPTS", 5)),
			BaseDelay:   getEnvDuration("FETCH_BASE_DELAY", 4*time.Second),
			MaxDelay:    getEnvDuration("FETCH_MAX_DELAY", 10*time.Second),
			MaxChars:    getEnvInt("FETCH_MAX_CHARS", 15000),
		},
		Pipeline: Pipeline{
			DefaultLanguage:    getEnv("DEFAULT_LANGUAGE", DefaultLanguage),
			DefaultTimezone:    getEnv("DEFAULT_TIMEZONE", DefaultTimezone),
			InitialGenerations: getEnvInt("INITIAL_GENERATIONS", DefaultInitialGenerations),
			MinRunInterval:     getEnvDuration("MIN_RUN_INTERVAL", DefaultMinRunInterval),
			TitleMaxLength:     getEnvInt("TITLE_MAX_LENGTH", DefaultTitleMaxLength),
			BodyMaxLength:      getEnvInt("BODY_MAX_LENGTH", DefaultBodyMaxLength),
			JobTimeout:         getEnvDuration("JOB_TIMEOUT", 10*time.Minute),
			LockTTL:            getEnvDuration("SCENARIO_LOCK_TTL", 15*time.Minute),
			DeliveryTimeout:    getEnvDuration("DELIVERY_TIMEOUT", 30*time.Second),
			ModerationTTL:      getEnvDuration("MODERATION_TTL", DefaultModerationTTL),
			MirrorImages:       getEnvBool("MIRROR_IMAGES", false),
		},
	}
}

// Validate checks the loaded values once at startup.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
