package coordinator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/aws/sns"
	"github.com/runatlantis/packagebuilder/server/logging"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// AuditEvent is published for every reported outcome.
type AuditEvent struct {
	JobID       string      `json:"job_id"`
	Outcome     Outcome     `json:"outcome"`
	FailureKind FailureKind `json:"failure_kind,omitempty"`
	Message     string      `json:"message,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// AuditReporter publishes each outcome to SNS after the delegate reported
// it. Publishing is best effort and never changes the reported result.
type AuditReporter struct {
	Reporter Reporter
	Writer   sns.Writer
	Logger   logging.Logger
	Now      func() time.Time
}

func NewAuditReporter(delegate Reporter, writer sns.Writer, logger logging.Logger) *AuditReporter {
	return &AuditReporter{
		Reporter: delegate,
		Writer:   writer,
		Logger:   logger,
		Now:      time.Now,
	}
}

func (a *AuditReporter) ReportSuccess(ctx context.Context, jobID string) error {
	if err := a.Reporter.ReportSuccess(ctx, jobID); err != nil {
		return err
	}
	a.publish(ctx, AuditEvent{
		JobID:   jobID,
		Outcome: OutcomeSuccess,
	})
	return nil
}

func (a *AuditReporter) ReportFailure(ctx context.Context, jobID string, kind FailureKind, message string) error {
	if err := a.Reporter.ReportFailure(ctx, jobID, kind, message); err != nil {
		return err
	}
	a.publish(ctx, AuditEvent{
		JobID:       jobID,
		Outcome:     OutcomeFailure,
		FailureKind: kind,
		Message:     message,
	})
	return nil
}

func (a *AuditReporter) publish(ctx context.Context, event AuditEvent) {
	event.Timestamp = a.Now().UTC()
	payload, err := json.Marshal(event)
	if err == nil {
		err = a.Writer.Write(ctx, payload)
	}
	if err != nil {
		a.Logger.WarnContext(ctx, "unable to publish audit event", logging.ErrField(errors.Wrap(err, "auditing job outcome")))
	}
}
