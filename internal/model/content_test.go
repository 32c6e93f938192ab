package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"info", LevelInfo},
		{"", LevelInfo},
		{"normal", LevelInfo},
		{"Success", LevelSuccess},
		{"warn", LevelWarning},
		{"critical", LevelError},
		{" error ", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.True(t, errors.Is(err, ErrUnknownLevel))
}

func TestLevel_String(t *testing.T) {
	for _, l := range Levels() {
		assert.NotEqual(t, "unknown", l.String())
		back, err := ParseLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, back)
	}
	assert.Equal(t, "unknown", Level(42).String())
}

func TestLevelForUrgency(t *testing.T) {
	assert.Equal(t, LevelInfo, LevelForUrgency(0))
	assert.Equal(t, LevelInfo, LevelForUrgency(1))
	assert.Equal(t, LevelError, LevelForUrgency(2))
}

func TestContent_Text(t *testing.T) {
	assert.Equal(t, "Saved", Content{Title: "Saved"}.Text())
	assert.Equal(t, "body", Content{Body: "body"}.Text())
	assert.Equal(t, "Saved\n3 files", Content{Title: "Saved", Body: "3 files"}.Text())
	assert.True(t, Content{Title: "  "}.Empty())
	assert.False(t, Content{Body: "x"}.Empty())
}

func TestContent_BodyTruncated(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		maxLen int
		want   string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"newlines collapsed", "a\n\nb", 10, "a b"},
		{"tiny limit", "hello", 2, "he"},
		{"no limit", "hello world", 0, "hello world"},
		{"runes", "héllo wörld", 8, "héllo..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Content{Body: tt.body}.BodyTruncated(tt.maxLen))
		})
	}
}
