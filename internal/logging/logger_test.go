package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger("wfc", &buf, WARN)

	l.Info("не должно попасть")
	l.Warn("попытка %d", 3)
	l.Error("сбой")

	out := buf.String()
	assert.NotContains(t, out, "не должно попасть")
	assert.Contains(t, out, "[WARN] [wfc] попытка 3")
	assert.Contains(t, out, "[ERROR] [wfc] сбой")

	l.SetLevels(TRACE, ERROR)
	l.Trace("трассировка")
	assert.Contains(t, buf.String(), "[TRACE] [wfc] трассировка")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestFileLogger(t *testing.T) {
	prev := LogDir
	LogDir = t.TempDir()
	defer func() { LogDir = prev }()

	l, err := NewLogger("pipeline")
	require.NoError(t, err)
	l.SetLevels(ERROR, DEBUG)
	l.Debug("в файл")
	require.NoError(t, l.Close())

	files, err := filepath.Glob(filepath.Join(LogDir, "pipeline_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "[DEBUG] [pipeline] в файл"))

	// Повторное закрытие безопасно
	assert.NoError(t, l.Close())
}

func TestLoggerManager(t *testing.T) {
	lm := &LoggerManager{loggers: make(map[string]*Logger), console: INFO}

	a := lm.MustGetLogger("paths")
	b := lm.MustGetLogger("paths")
	assert.Same(t, a, b, "логгер компонента создаётся один раз")

	lm.MustGetLogger("wfc")
	assert.Equal(t, []string{"paths", "wfc"}, lm.ListComponents())

	assert.NoError(t, lm.SetLogLevel("wfc", DEBUG, DEBUG))
	assert.Error(t, lm.SetLogLevel("missing", DEBUG, DEBUG))
	assert.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.ListComponents())
}
