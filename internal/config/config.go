package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	AIProvider        string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	AnthropicAPIKey   string
	JudgeModel        string
	JudgeTimeout      time.Duration
	JudgeMaxAttempts  int
	EssayPassRatio    float64
	PlanCacheTTL      time.Duration
	PlannerTablesPath string
	ScoreEventSubject string
	ScoreEventChannel string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Lingua API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("judge.timeout", "20s")
	v.SetDefault("judge.max_attempts", 2)
	v.SetDefault("judge.essay_pass_ratio", 0.6)
	v.SetDefault("quiz_plan.cache_ttl", "10m")
	v.SetDefault("score_events.subject", "score.recorded")
	v.SetDefault("score_events.channel", "score.recorded")

	judgeTimeout, err := parseDuration(v.GetString("judge.timeout"), 20*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid judge timeout: %w", err)
	}

	planTTL, err := parseDuration(v.GetString("quiz_plan.cache_ttl"), 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid quiz plan cache ttl: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		AIProvider:        strings.ToLower(v.GetString("ai.provider")),
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		OpenAIBaseURL:     v.GetString("openai_base_url"),
		AnthropicAPIKey:   v.GetString("anthropic_api_key"),
		JudgeModel:        v.GetString("judge.model"),
		JudgeTimeout:      judgeTimeout,
		JudgeMaxAttempts:  v.GetInt("judge.max_attempts"),
		EssayPassRatio:    v.GetFloat64("judge.essay_pass_ratio"),
		PlanCacheTTL:      planTTL,
		PlannerTablesPath: v.GetString("planner.tables_path"),
		ScoreEventSubject: v.GetString("score_events.subject"),
		ScoreEventChannel: v.GetString("score_events.channel"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.JudgeMaxAttempts <= 0 {
		cfg.JudgeMaxAttempts = 1
	}

	if cfg.EssayPassRatio <= 0 || cfg.EssayPassRatio > 1 {
		cfg.EssayPassRatio = 0.6
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}
