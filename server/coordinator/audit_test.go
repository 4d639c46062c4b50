package coordinator_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/runatlantis/packagebuilder/server/coordinator"
	"github.com/runatlantis/packagebuilder/server/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testReporter struct {
	calls []string
	err   error
}

func (r *testReporter) ReportSuccess(ctx context.Context, jobID string) error {
	r.calls = append(r.calls, "success:"+jobID)
	return r.err
}

func (r *testReporter) ReportFailure(ctx context.Context, jobID string, kind coordinator.FailureKind, message string) error {
	r.calls = append(r.calls, "failure:"+jobID+":"+string(kind)+":"+message)
	return r.err
}

type testWriter struct {
	payloads [][]byte
	err      error
}

func (w *testWriter) Write(ctx context.Context, payload []byte) error {
	w.payloads = append(w.payloads, payload)
	return w.err
}

func newAuditReporter(t *testing.T, delegate *testReporter, writer *testWriter) *coordinator.AuditReporter {
	r := coordinator.NewAuditReporter(delegate, writer, logging.NewNoopCtxLogger(t))
	r.Now = func() time.Time { return time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC) }
	return r
}

func TestAuditReporter_ReportSuccess(t *testing.T) {
	delegate := &testReporter{}
	writer := &testWriter{}
	r := newAuditReporter(t, delegate, writer)

	require.NoError(t, r.ReportSuccess(context.Background(), "job-42"))
	assert.Equal(t, []string{"success:job-42"}, delegate.calls)

	require.Len(t, writer.payloads, 1)
	var event coordinator.AuditEvent
	require.NoError(t, json.Unmarshal(writer.payloads[0], &event))
	assert.Equal(t, coordinator.AuditEvent{
		JobID:     "job-42",
		Outcome:   coordinator.OutcomeSuccess,
		Timestamp: time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC),
	}, event)
}

func TestAuditReporter_ReportFailure(t *testing.T) {
	delegate := &testReporter{}
	writer := &testWriter{}
	r := newAuditReporter(t, delegate, writer)

	require.NoError(t, r.ReportFailure(context.Background(), "job-42", coordinator.FailureKindJobFailed, "boom"))
	assert.Equal(t, []string{"failure:job-42:JobFailed:boom"}, delegate.calls)

	require.Len(t, writer.payloads, 1)
	assert.JSONEq(t, `{"job_id":"job-42","outcome":"failure","failure_kind":"JobFailed","message":"boom","timestamp":"2022-01-02T03:04:05Z"}`, string(writer.payloads[0]))
}

func TestAuditReporter_DelegateError(t *testing.T) {
	delegate := &testReporter{err: errors.New("coordinator down")}
	writer := &testWriter{}
	r := newAuditReporter(t, delegate, writer)

	assert.EqualError(t, r.ReportSuccess(context.Background(), "job-42"), "coordinator down")
	assert.Empty(t, writer.payloads)
}

func TestAuditReporter_PublishErrorIgnored(t *testing.T) {
	delegate := &testReporter{}
	writer := &testWriter{err: errors.New("throttled")}
	r := newAuditReporter(t, delegate, writer)

	assert.NoError(t, r.ReportFailure(context.Background(), "job-42", coordinator.FailureKindJobFailed, "boom"))
	assert.Len(t, writer.payloads, 1)
}
