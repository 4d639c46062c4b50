package metrics

import (
	"io"
	"strings"
	"time"

	"github.com/cactus/go-statsd-client/statsd"
	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/config/valid"
	"github.com/uber-go/tally/v4"
	tallystatsd "github.com/uber-go/tally/v4/statsd"
)

// NewScope returns a root scope reporting to statsd. Without statsd
// configuration the scope still works but reports nowhere.
func NewScope(cfg valid.Metrics, namespace string) (tally.Scope, io.Closer, error) {
	reporter, err := NewReporter(cfg)
	if err != nil {
		return nil, nil, err
	}

	scope, closer := NewScopeWithReporter(reporter, namespace)
	return scope, closer, nil
}

func NewScopeWithReporter(reporter tally.StatsReporter, namespace string) (tally.Scope, io.Closer) {
	return tally.NewRootScope(tally.ScopeOptions{
		Prefix:   namespace,
		Reporter: reporter,
	}, time.Second)
}

func NewReporter(cfg valid.Metrics) (tally.StatsReporter, error) {
	if cfg.Statsd == nil {
		return tally.NullStatsReporter, nil
	}

	statsdCfg := cfg.Statsd
	client, err := statsd.NewClientWithConfig(&statsd.ClientConfig{
		Address: strings.Join([]string{statsdCfg.Host, statsdCfg.Port}, ":"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "initializing statsd client")
	}

	return newTagReporter(tallystatsd.NewReporter(client, tallystatsd.Options{}), statsdCfg.TagSeparator), nil
}
