// Package coordinator reports job outcomes back to the pipeline that
// dispatched the job.
package coordinator

import (
	"context"
)

// FailureKind classifies a failure for the coordinator.
type FailureKind string

// FailureKindJobFailed is the only kind jobs report.
const FailureKindJobFailed FailureKind = "JobFailed"

type Reporter interface {
	ReportSuccess(ctx context.Context, jobID string) error
	ReportFailure(ctx context.Context, jobID string, kind FailureKind, message string) error
}
