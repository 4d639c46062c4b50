package sqs

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/job"
	"github.com/runatlantis/packagebuilder/server/logging"
	"github.com/uber-go/tally/v4"
)

type MessageProcessor interface {
	ProcessMessage(ctx context.Context, msg types.Message) error
}

type eventHandler interface {
	HandleEvent(ctx context.Context, payload []byte) error
}

type visibilityChanger interface {
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

// JobEventProcessor runs the job carried in each message body. A job that
// failed but was reported counts as processed so the message isn't
// redelivered for a job the coordinator already considers finished.
//
// When Queue is set the message's visibility timeout is pushed back every
// HeartbeatInterval until the job returns.
type JobEventProcessor struct {
	Handler           eventHandler
	Queue             visibilityChanger
	QueueURL          string
	VisibilityTimeout time.Duration
	HeartbeatInterval time.Duration
	Logger            logging.Logger
}

func (p *JobEventProcessor) ProcessMessage(ctx context.Context, msg types.Message) error {
	if msg.Body == nil {
		return errors.New("message has no body")
	}

	stop := p.keepInvisible(ctx, msg)
	err := p.Handler.HandleEvent(ctx, []byte(*msg.Body))
	stop()

	var failed *job.FailedError
	if errors.As(err, &failed) {
		return nil
	}
	return err
}

func (p *JobEventProcessor) keepInvisible(ctx context.Context, msg types.Message) func() {
	if p.Queue == nil || p.HeartbeatInterval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(p.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p.extendVisibility(ctx, msg)
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func (p *JobEventProcessor) extendVisibility(ctx context.Context, msg types.Message) {
	// failure reporting outlives shutdown, so the message must stay hidden too
	_, err := p.Queue.ChangeMessageVisibility(context.WithoutCancel(ctx), &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(p.QueueURL),
		ReceiptHandle:     msg.ReceiptHandle,
		VisibilityTimeout: int32(p.VisibilityTimeout / time.Second),
	})
	if err != nil {
		p.Logger.WarnContext(ctx, "unable to extend message visibility", map[string]interface{}{
			"message_id": aws.ToString(msg.MessageId),
			"err":        err.Error(),
		})
	}
}

type JobEventProcessorStats struct {
	MessageProcessor
	Scope tally.Scope
}

func (s *JobEventProcessorStats) ProcessMessage(ctx context.Context, msg types.Message) error {
	timer := s.Scope.Timer(Latency).Start()
	defer timer.Stop()

	if err := s.MessageProcessor.ProcessMessage(ctx, msg); err != nil {
		s.Scope.Counter(Error).Inc(1)
		return err
	}
	s.Scope.Counter(Success).Inc(1)
	return nil
}
