package coordinator

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/codepipeline"
	"github.com/aws/aws-sdk-go/service/codepipeline/codepipelineiface"
	"github.com/pkg/errors"
)

// maxFailureMessageLength is the CodePipeline limit on failure details.
const maxFailureMessageLength = 5000

type CodePipelineReporter struct {
	API codepipelineiface.CodePipelineAPI
}

func NewCodePipelineReporter(sess *session.Session, region string) *CodePipelineReporter {
	cfg := aws.NewConfig()
	if region != "" {
		cfg = cfg.WithRegion(region)
	}
	return &CodePipelineReporter{
		API: codepipeline.New(sess, cfg),
	}
}

func (r *CodePipelineReporter) ReportSuccess(ctx context.Context, jobID string) error {
	_, err := r.API.PutJobSuccessResultWithContext(ctx, &codepipeline.PutJobSuccessResultInput{
		JobId: aws.String(jobID),
	})
	if err != nil {
		return errors.Wrapf(err, "putting success result for job %s", jobID)
	}
	return nil
}

func (r *CodePipelineReporter) ReportFailure(ctx context.Context, jobID string, kind FailureKind, message string) error {
	_, err := r.API.PutJobFailureResultWithContext(ctx, &codepipeline.PutJobFailureResultInput{
		JobId: aws.String(jobID),
		FailureDetails: &codepipeline.FailureDetails{
			Type:    aws.String(failureType(kind)),
			Message: aws.String(truncate(message, maxFailureMessageLength)),
		},
	})
	if err != nil {
		return errors.Wrapf(err, "putting failure result for job %s", jobID)
	}
	return nil
}

func failureType(kind FailureKind) string {
	switch kind {
	case FailureKindJobFailed:
		return codepipeline.FailureTypeJobFailed
	}
	return string(kind)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
