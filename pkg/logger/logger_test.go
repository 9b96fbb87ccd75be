package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInitLogger_Levels(t *testing.T) {
	log := InitLogger("warn", false)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
	assert.Same(t, log, GetLogger())

	t.Setenv("LOG_FORMAT", "")
	log = InitLogger("not-a-level", true)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestInitLogger_EnvFallback(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	log := InitLogger("", true)
	assert.Equal(t, logrus.ErrorLevel, log.GetLevel())
}

func TestWithSimulationContext(t *testing.T) {
	InitLogger("info", false)
	entry := WithSimulationContext("abc", 42, 1000)
	assert.Equal(t, "abc", entry.Data["run_id"])
	assert.Equal(t, uint64(42), entry.Data["seed"])
	assert.Equal(t, 1000, entry.Data["runs"])
}
