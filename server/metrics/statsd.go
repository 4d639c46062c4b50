package metrics

import (
	"sort"
	"strings"
	"time"

	"github.com/uber-go/tally/v4"
)

// DefaultTagSeparator joins tags onto a metric name in the influx statsd
// format, e.g. job.success,state=built.
const DefaultTagSeparator = ","

// tagReporter folds tally tags into the metric name, since plain statsd has
// no notion of tags. Tags are written in key order so a counter keeps one
// name across flushes.
//
// https://github.com/influxdata/telegraf/blob/master/plugins/inputs/statsd/README.md#influx-statsd
type tagReporter struct {
	tally.StatsReporter

	separator string
}

func newTagReporter(reporter tally.StatsReporter, separator string) *tagReporter {
	if separator == "" {
		separator = DefaultTagSeparator
	}
	return &tagReporter{StatsReporter: reporter, separator: separator}
}

func (r *tagReporter) taggedName(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		if tags[k] == "" {
			continue
		}
		b.WriteString(r.separator)
		b.WriteString(sanitizeTag(k))
		b.WriteByte('=')
		b.WriteString(sanitizeTag(tags[k]))
	}
	return b.String()
}

func (r *tagReporter) ReportCounter(name string, tags map[string]string, value int64) {
	r.StatsReporter.ReportCounter(r.taggedName(name, tags), nil, value)
}

func (r *tagReporter) ReportGauge(name string, tags map[string]string, value float64) {
	r.StatsReporter.ReportGauge(r.taggedName(name, tags), nil, value)
}

func (r *tagReporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {
	r.StatsReporter.ReportTimer(r.taggedName(name, tags), nil, interval)
}

func (r *tagReporter) ReportHistogramValueSamples(name string, tags map[string]string, buckets tally.Buckets, bucketLowerBound, bucketUpperBound float64, samples int64) {
	r.StatsReporter.ReportHistogramValueSamples(r.taggedName(name, tags), nil, buckets, bucketLowerBound, bucketUpperBound, samples)
}

func (r *tagReporter) ReportHistogramDurationSamples(name string, tags map[string]string, buckets tally.Buckets, bucketLowerBound, bucketUpperBound time.Duration, samples int64) {
	r.StatsReporter.ReportHistogramDurationSamples(r.taggedName(name, tags), nil, buckets, bucketLowerBound, bucketUpperBound, samples)
}

// sanitizeTag swaps characters statsd or the tag syntax would misread.
func sanitizeTag(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ':', '|', '-', '=', ',', ' ':
			return '_'
		}
		return r
	}, s)
}
