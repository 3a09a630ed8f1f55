package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/powerrank/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetColorTier(t *testing.T) {
	for _, tier := range []schema.Tier{schema.TierS, schema.TierA, schema.TierB, schema.TierC, schema.TierD} {
		t.Run(string(tier), func(t *testing.T) {
			assert.Contains(t, GetColorTier(tier), string(tier))
		})
	}
}

func TestGetColorMovement(t *testing.T) {
	up, down, flat := 2, -1, 0
	assert.Contains(t, GetColorMovement(schema.PayloadEntry{Movement: &up}), "+2")
	assert.Contains(t, GetColorMovement(schema.PayloadEntry{Movement: &down}), "-1")
	assert.Equal(t, "=", GetColorMovement(schema.PayloadEntry{Movement: &flat}))
	assert.Contains(t, GetColorMovement(schema.PayloadEntry{}), "NEW")
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestGetDBFilePath(t *testing.T) {
	path := GetDBFilePath()
	assert.True(t, strings.HasSuffix(path, ".powerrank_snapshots.db"))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "abcdefg...", TruncateText("abcdefghijklmnop", 10))
	assert.Equal(t, "abcdef", TruncateText("abcdef", 3))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBoolString("perhaps")
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	defer SetLogger(*Logger())

	require.NoError(t, InitLogger(LoggerConfig{Level: "debug", NoColor: true}))
	assert.Equal(t, zerolog.DebugLevel, Logger().GetLevel())

	logFile := filepath.Join(t.TempDir(), "logs", "powerrank.log")
	require.NoError(t, InitLogger(LoggerConfig{Level: "info", File: logFile, NoColor: true}))
	Logger().Info().Str("tool_id", "cursor").Msg("hello")
	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tool_id":"cursor"`)

	assert.Error(t, InitLogger(LoggerConfig{Level: "loud"}))
}
