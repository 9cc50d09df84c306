package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, 5, cfg.GridRows)
	require.Equal(t, 5, cfg.GridCols)
	require.Equal(t, 4, cfg.MaxPlayers)
	require.Equal(t, 30, cfg.AnswerTimeSec)
	require.Len(t, cfg.Letters, 28)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ADDR", ":9999")
	t.Setenv("GRID_ROWS", "7")
	t.Setenv("LETTERS", "a, b ,c")
	t.Setenv("ANSWER_TIME_SEC", "not-a-number")

	cfg := Load()

	require.Equal(t, ":9999", cfg.Addr)
	require.Equal(t, 7, cfg.GridRows)
	require.Equal(t, []string{"a", "b", "c"}, cfg.Letters)
	// unparseable values fall back
	require.Equal(t, 30, cfg.AnswerTimeSec)
}
