package logging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/runatlantis/packagebuilder/server/logging"
	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		raw      string
		expected logging.LogLevel
	}{
		{"debug", logging.Debug},
		{"INFO", logging.Info},
		{"warn", logging.Warn},
		{"Error", logging.Error},
	}

	for _, c := range cases {
		t.Run(c.raw, func(t *testing.T) {
			lvl, err := logging.ParseLogLevel(c.raw)
			assert.NoError(t, err)
			assert.Equal(t, c.expected, lvl)
		})
	}
}

func TestParseLogLevel_Unknown(t *testing.T) {
	_, err := logging.ParseLogLevel("verbose")
	assert.EqualError(t, err, `log level "verbose" is not supported`)
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "warn", logging.Warn.String())
}

func TestErrField(t *testing.T) {
	assert.Equal(t, map[string]interface{}{"err": "boom"}, logging.ErrField(errors.New("boom")))
}

func TestLineWriter(t *testing.T) {
	w := &logging.LineWriter{
		Ctx:    context.Background(),
		Logger: logging.NewNoopCtxLogger(t),
		Source: "stdout",
	}
	// only asserts the writer is safe to use with the test logger
	w.WriteLine("BUILD SUCCESSFUL")
}
