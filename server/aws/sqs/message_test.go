package sqs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/runatlantis/packagebuilder/server/aws/sqs"
	"github.com/runatlantis/packagebuilder/server/job"
	"github.com/runatlantis/packagebuilder/server/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally/v4"
)

type testHandler struct {
	payloads []string
	err      error
}

func (h *testHandler) HandleEvent(ctx context.Context, payload []byte) error {
	h.payloads = append(h.payloads, string(payload))
	return h.err
}

func TestJobEventProcessor_ProcessMessage(t *testing.T) {
	cases := []struct {
		description string
		handlerErr  error
		expErr      bool
	}{
		{
			description: "success",
		},
		{
			description: "reported job failure",
			handlerErr:  &job.FailedError{State: job.Built, Err: errors.New("compilation failed")},
		},
		{
			description: "unreported failure",
			handlerErr:  errors.New("reporting job failure: throttled"),
			expErr:      true,
		},
	}

	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			handler := &testHandler{err: c.handlerErr}
			processor := &sqs.JobEventProcessor{Handler: handler}

			err := processor.ProcessMessage(context.Background(), types.Message{Body: aws.String(`{"CodePipeline.job":{}}`)})
			if c.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, []string{`{"CodePipeline.job":{}}`}, handler.payloads)
		})
	}
}

func TestJobEventProcessor_NoBody(t *testing.T) {
	handler := &testHandler{}
	processor := &sqs.JobEventProcessor{Handler: handler}

	assert.Error(t, processor.ProcessMessage(context.Background(), types.Message{}))
	assert.Empty(t, handler.payloads)
}

func TestJobEventProcessorStats(t *testing.T) {
	testScope := tally.NewTestScope("test", nil)
	handler := &testHandler{}
	processor := &sqs.JobEventProcessorStats{
		MessageProcessor: &sqs.JobEventProcessor{Handler: handler},
		Scope:            testScope,
	}

	assert.NoError(t, processor.ProcessMessage(context.Background(), types.Message{Body: aws.String("{}")}))
	handler.err = errors.New("boom")
	assert.Error(t, processor.ProcessMessage(context.Background(), types.Message{Body: aws.String("{}")}))

	counters := testScope.Snapshot().Counters()
	assert.Equal(t, int64(1), counters["test.success+"].Value())
	assert.Equal(t, int64(1), counters["test.error+"].Value())
}

// blockingHandler holds the job open until the message has been extended.
type blockingHandler struct {
	queue *testQueue
}

func (h *blockingHandler) HandleEvent(ctx context.Context, payload []byte) error {
	deadline := time.After(10 * time.Second)
	for len(h.queue.extensions()) < 2 {
		select {
		case <-deadline:
			return errors.New("visibility was never extended")
		case <-time.After(5 * time.Millisecond):
		}
	}
	return nil
}

func TestJobEventProcessor_ExtendsVisibility(t *testing.T) {
	queue := &testQueue{}
	processor := &sqs.JobEventProcessor{
		Handler:           &blockingHandler{queue: queue},
		Queue:             queue,
		QueueURL:          "https://sqs.us-east-1.amazonaws.com/123/jobs",
		VisibilityTimeout: 2 * time.Minute,
		HeartbeatInterval: 10 * time.Millisecond,
		Logger:            logging.NewNoopCtxLogger(t),
	}

	err := processor.ProcessMessage(context.Background(), message("a"))
	require.NoError(t, err)

	extended := queue.extensions()
	require.GreaterOrEqual(t, len(extended), 2)
	for _, e := range extended {
		assert.Equal(t, "handle-a", aws.ToString(e.ReceiptHandle))
		assert.Equal(t, "https://sqs.us-east-1.amazonaws.com/123/jobs", aws.ToString(e.QueueUrl))
		assert.Equal(t, int32(120), e.VisibilityTimeout)
	}

	// the heartbeat stops with the job
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, queue.extensions(), len(extended))
}
