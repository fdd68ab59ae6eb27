package app

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicemail-relay-go/internal/config"
)

func TestConfigureLogging(t *testing.T) {
	defer logrus.SetFormatter(&logrus.TextFormatter{})
	defer logrus.SetLevel(logrus.InfoLevel)

	require.NoError(t, ConfigureLogging(config.LogConfig{Level: "debug", Format: "json"}))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	require.NoError(t, ConfigureLogging(config.LogConfig{Level: "warn", Format: "text"}))
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logrus.StandardLogger().Formatter)
}

func TestConfigureLoggingRejectsInvalidValues(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	assert.Error(t, ConfigureLogging(config.LogConfig{Level: "loud", Format: "text"}))
	assert.Error(t, ConfigureLogging(config.LogConfig{Level: "info", Format: "xml"}))
}
