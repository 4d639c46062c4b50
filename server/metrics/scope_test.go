package metrics_test

import (
	"testing"

	"github.com/runatlantis/packagebuilder/server/config/valid"
	"github.com/runatlantis/packagebuilder/server/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally/v4"
)

func TestNewReporter_Unconfigured(t *testing.T) {
	reporter, err := metrics.NewReporter(valid.Metrics{})
	require.NoError(t, err)
	assert.Equal(t, tally.NullStatsReporter, reporter)
}

func TestNewReporter_Statsd(t *testing.T) {
	reporter, err := metrics.NewReporter(valid.Metrics{
		Statsd: &valid.Statsd{Host: "127.0.0.1", Port: "8125"},
	})
	require.NoError(t, err)
	assert.NotNil(t, reporter)
}

func TestNewScope(t *testing.T) {
	scope, closer, err := metrics.NewScope(valid.Metrics{}, "packagebuilder")
	require.NoError(t, err)
	defer closer.Close()

	scope.Counter("job.success").Inc(1)
}
