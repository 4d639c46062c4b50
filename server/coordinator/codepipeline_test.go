package coordinator_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/codepipeline"
	"github.com/aws/aws-sdk-go/service/codepipeline/codepipelineiface"
	"github.com/runatlantis/packagebuilder/server/coordinator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCodePipeline struct {
	codepipelineiface.CodePipelineAPI

	successes []*codepipeline.PutJobSuccessResultInput
	failures  []*codepipeline.PutJobFailureResultInput
	err       error
}

func (c *testCodePipeline) PutJobSuccessResultWithContext(ctx aws.Context, input *codepipeline.PutJobSuccessResultInput, opts ...request.Option) (*codepipeline.PutJobSuccessResultOutput, error) {
	c.successes = append(c.successes, input)
	return &codepipeline.PutJobSuccessResultOutput{}, c.err
}

func (c *testCodePipeline) PutJobFailureResultWithContext(ctx aws.Context, input *codepipeline.PutJobFailureResultInput, opts ...request.Option) (*codepipeline.PutJobFailureResultOutput, error) {
	c.failures = append(c.failures, input)
	return &codepipeline.PutJobFailureResultOutput{}, c.err
}

func TestCodePipelineReporter_ReportSuccess(t *testing.T) {
	api := &testCodePipeline{}
	r := &coordinator.CodePipelineReporter{API: api}

	require.NoError(t, r.ReportSuccess(context.Background(), "job-42"))
	require.Len(t, api.successes, 1)
	assert.Equal(t, "job-42", aws.StringValue(api.successes[0].JobId))
	assert.Empty(t, api.failures)
}

func TestCodePipelineReporter_ReportFailure(t *testing.T) {
	api := &testCodePipeline{}
	r := &coordinator.CodePipelineReporter{API: api}

	require.NoError(t, r.ReportFailure(context.Background(), "job-42", coordinator.FailureKindJobFailed, "Exception occured: boom"))
	require.Len(t, api.failures, 1)
	input := api.failures[0]
	assert.Equal(t, "job-42", aws.StringValue(input.JobId))
	assert.Equal(t, "JobFailed", aws.StringValue(input.FailureDetails.Type))
	assert.Equal(t, "Exception occured: boom", aws.StringValue(input.FailureDetails.Message))
}

func TestCodePipelineReporter_ReportFailure_TruncatesMessage(t *testing.T) {
	api := &testCodePipeline{}
	r := &coordinator.CodePipelineReporter{API: api}

	require.NoError(t, r.ReportFailure(context.Background(), "job-42", coordinator.FailureKindJobFailed, strings.Repeat("x", 6000)))
	assert.Len(t, aws.StringValue(api.failures[0].FailureDetails.Message), 5000)
}

func TestCodePipelineReporter_Errors(t *testing.T) {
	api := &testCodePipeline{err: errors.New("invalid job state")}
	r := &coordinator.CodePipelineReporter{API: api}

	assert.EqualError(t, r.ReportSuccess(context.Background(), "job-42"), "putting success result for job job-42: invalid job state")
	assert.EqualError(t, r.ReportFailure(context.Background(), "job-42", coordinator.FailureKindJobFailed, "m"), "putting failure result for job job-42: invalid job state")
}
