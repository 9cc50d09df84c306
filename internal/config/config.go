package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultLetters is the Arabic alphabet the grid draws from when LETTERS is
// not configured.
var DefaultLetters = []string{
	"ا", "ب", "ت", "ث", "ج", "ح", "خ", "د", "ذ", "ر", "ز", "س", "ش", "ص",
	"ض", "ط", "ظ", "ع", "غ", "ف", "ق", "ك", "ل", "م", "ن", "ه", "و", "ي",
}

type Config struct {
	Addr        string
	Env         string
	DatabaseURL string

	GridRows int
	GridCols int
	Letters  []string

	MaxPlayers    int
	AnswerTimeSec int
	PenaltySec    int
	Team1Color    string
	Team2Color    string
}

// Load reads configuration from the environment, honoring a local .env file
// when present. DATABASE_URL is optional: without it match results are simply
// not persisted.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Addr:        getenv("APP_ADDR", ":8080"),
		Env:         getenv("APP_ENV", "production"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		GridRows: getenvInt("GRID_ROWS", 5),
		GridCols: getenvInt("GRID_COLS", 5),
		Letters:  getenvList("LETTERS", DefaultLetters),

		MaxPlayers:    getenvInt("MAX_PLAYERS", 4),
		AnswerTimeSec: getenvInt("ANSWER_TIME_SEC", 30),
		PenaltySec:    getenvInt("PENALTY_TIME_SEC", 10),
		Team1Color:    getenv("TEAM1_COLOR", "#FF5555"),
		Team2Color:    getenv("TEAM2_COLOR", "#5555FF"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getenvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
