package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port        string
	RedisURL    string // empty disables the live match cache
	JWTSecret   string
	CORSOrigin  string
	IdleTimeout time.Duration
	CacheTTL    time.Duration
	Opponent    string // bot difficulty for factions a create request leaves unassigned
	Rules       conquest.Rules
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:        envOrDefault("PORT", "8009"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   envOrDefault("JWT_SECRET", "dev-secret-change-me"),
		CORSOrigin:  envOrDefault("CORS_ORIGIN", "*"),
		IdleTimeout: envDuration("MATCH_IDLE_TIMEOUT", 30*time.Minute),
		CacheTTL:    envDuration("MATCH_CACHE_TTL", time.Hour),
		Opponent:    envOrDefault("BOT_DIFFICULTY", "easy"),
		Rules:       loadRules(),
	}
}

// loadRules starts from the standard rule set and applies any CONQUEST_*
// overrides. Invalid values are surfaced when a match is created.
func loadRules() conquest.Rules {
	r := conquest.DefaultRules()
	if v := os.Getenv("CONQUEST_GENERATOR"); v != "" {
		r.Generator = conquest.Generator(v)
	}
	if v := os.Getenv("CONQUEST_COMBAT"); v != "" {
		r.Combat = conquest.CombatPolicy(v)
	}
	if v := os.Getenv("CONQUEST_VICTORY"); v != "" {
		r.Victory = conquest.VictoryRule(v)
	}
	r.IncomePerTerritory = envInt("CONQUEST_INCOME_PER_TERRITORY", r.IncomePerTerritory)
	r.TreasureChance = envFloat("CONQUEST_TREASURE_CHANCE", r.TreasureChance)
	return r
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warn().Str("key", key).Str("value", v).Dur("default", fallback).Msg("Invalid duration, using default")
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Int("default", fallback).Msg("Invalid integer, using default")
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Float64("default", fallback).Msg("Invalid number, using default")
		return fallback
	}
	return f
}
