package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		Given  string
		Expect zapcore.Level
	}{
		{"debug", zap.DebugLevel},
		{"DEBUG", zap.DebugLevel},
		{"info", zap.InfoLevel},
		{"warn", zap.WarnLevel},
		{"warning", zap.WarnLevel},
		{"error", zap.ErrorLevel},
		{"", zap.InfoLevel},
		{"loud", zap.InfoLevel},
	}

	for _, c := range cases {
		t.Run(c.Given, func(t *testing.T) {
			assert.Equal(t, c.Expect, ParseLevel(c.Given))
		})
	}
}

func TestNewLoggerToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pms.log")

	log := NewLogger(&LogOptions{Level: "info", Format: "json", Output: path})
	log.Debug("hidden")
	log.Info("shown", zap.String("task", "sim"))
	log.Sync()

	data, err := os.ReadFile(path)
	require.Nil(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg":"shown"`)
	assert.Contains(t, lines[0], `"task":"sim"`)
}

func TestTLSConfigNone(t *testing.T) {
	cfg, err := TLSConfig("", "", "")

	assert.Nil(t, err)
	assert.Nil(t, cfg)
}

func TestTLSConfigCertWithoutKey(t *testing.T) {
	cfg, err := TLSConfig("", "client.pem", "")

	assert.NotNil(t, err)
	assert.Nil(t, cfg)
}

func TestTLSConfigBadCA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	require.Nil(t, os.WriteFile(path, []byte("not a cert"), 0644))

	cfg, err := TLSConfig(path, "", "")

	assert.NotNil(t, err)
	assert.Nil(t, cfg)
}

func TestTLSConfigMissingCA(t *testing.T) {
	_, err := TLSConfig(filepath.Join(t.TempDir(), "missing.pem"), "", "")

	assert.True(t, os.IsNotExist(err))
}
