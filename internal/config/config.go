package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port          int
	DatabaseURL   string
	RedisURL      string
	NatsURL       string
	NatsToken     string
	LLMBaseURL    string
	LLMAPIKey     string
	LLMModel      string
	SerperAPIKey  string
	LogLevel      string
	SessionTTLMin int
	SweepEverySec int
}

func Load() Config {
	return Config{
		Port:          envInt("CONCIERGE_PORT", 8900),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		RedisURL:      envStr("REDIS_URL", "redis://localhost:6379"),
		NatsURL:       envStr("NATS_URL", ""),
		NatsToken:     envStr("NATS_TOKEN", ""),
		LLMBaseURL:    envStr("LLM_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMAPIKey:     envStr("LLM_API_KEY", ""),
		LLMModel:      envStr("LLM_MODEL", "gemini-2.0-flash"),
		SerperAPIKey:  envStr("SERPER_API_KEY", ""),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		SessionTTLMin: envInt("SESSION_TTL_MINUTES", 30),
		SweepEverySec: envInt("SWEEP_INTERVAL_SECONDS", 60),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
