package main

import (
	"os"
	"strconv"
	"strings"
)

const (
	envListenAddr = "STONEFALL_ADDR"
	envDifficulty = "STONEFALL_DIFFICULTY"
	envWorldSeed  = "STONEFALL_SEED"

	defaultListenAddr = ":8080"
)

// serverConfig captures the process-level toggles the server reads at
// startup.
type serverConfig struct {
	ListenAddr string
	Difficulty DifficultyFlags
	Seed       int64
	SeedSet    bool
}

// loadServerConfig reads settings from the environment, falling back to
// defaults when unset or invalid.
func loadServerConfig() serverConfig {
	cfg := serverConfig{
		ListenAddr: defaultListenAddr,
		Difficulty: DifficultyNormal,
	}

	if raw := strings.TrimSpace(os.Getenv(envListenAddr)); raw != "" {
		cfg.ListenAddr = raw
	}

	switch strings.ToLower(strings.TrimSpace(os.Getenv(envDifficulty))) {
	case "easy":
		cfg.Difficulty = DifficultyEasy
	case "normal", "":
		cfg.Difficulty = DifficultyNormal
	case "hard":
		cfg.Difficulty = DifficultyHard
	}

	if raw := os.Getenv(envWorldSeed); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cfg.Seed = parsed
			cfg.SeedSet = true
		}
	}

	return cfg
}
