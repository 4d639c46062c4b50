package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/runatlantis/packagebuilder/server/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*kong.Context, error) {
	cli := CLI
	parser, err := kong.New(&cli, FlagsVars, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	if err == nil {
		CLI = cli
	}
	return ctx, err
}

func TestParse_Run(t *testing.T) {
	ctx, err := parse(t, "run", "--event-file", "event.json", "--log-level", "debug", "--aws-region", "us-west-2")
	require.NoError(t, err)

	assert.Equal(t, "run", ctx.Command())
	assert.Equal(t, "event.json", CLI.Run.EventFile)
	assert.Equal(t, logging.Debug, CLI.Run.LogLevel)
	assert.Equal(t, "us-west-2", CLI.Run.AWSRegion)
	assert.Equal(t, "packagebuilder", CLI.Run.StatsNamespace)
}

func TestParse_RunDefaults(t *testing.T) {
	_, err := parse(t, "run")
	require.NoError(t, err)

	assert.Equal(t, "-", CLI.Run.EventFile)
	assert.Equal(t, logging.Info, CLI.Run.LogLevel)
	assert.Empty(t, CLI.Run.BuilderConfig)
}

func TestParse_Worker(t *testing.T) {
	_, err := parse(t, "worker", "--queue-url", "https://sqs.us-east-1.amazonaws.com/123/jobs")
	require.NoError(t, err)

	assert.Equal(t, "https://sqs.us-east-1.amazonaws.com/123/jobs", CLI.Worker.QueueURL.String())
	assert.Equal(t, 4141, CLI.Worker.Port)
}

func TestParse_WorkerErrors(t *testing.T) {
	cases := []struct {
		description string
		args        []string
	}{
		{"missing queue url", []string{"worker"}},
		{"bad queue url scheme", []string{"worker", "--queue-url", "sqs://jobs"}},
		{"bad port", []string{"worker", "--queue-url", "https://queue", "--port", "0"}},
		{"bad log level", []string{"worker", "--queue-url", "https://queue", "--log-level", "trace"}},
	}
	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			_, err := parse(t, c.args...)
			assert.Error(t, err)
		})
	}
}

func TestParse_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packagebuilder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"worker:",
		"  queue-url: https://sqs.us-east-1.amazonaws.com/123/jobs",
		"  port: 8080",
		"  stats-namespace: builds",
	}, "\n")), 0600))

	_, err := parse(t, "worker", "--config", path)
	require.NoError(t, err)

	assert.Equal(t, "https://sqs.us-east-1.amazonaws.com/123/jobs", CLI.Worker.QueueURL.String())
	assert.Equal(t, 8080, CLI.Worker.Port)
	assert.Equal(t, "builds", CLI.Worker.StatsNamespace)
}

func TestReadEvent(t *testing.T) {
	payload, err := readEvent("-", strings.NewReader(`{"CodePipeline.job":{}}`))
	require.NoError(t, err)
	assert.Equal(t, `{"CodePipeline.job":{}}`, string(payload))

	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0600))
	payload, err = readEvent(path, nil)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(payload))

	_, err = readEvent(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.ErrorContains(t, err, "reading event file")
}
