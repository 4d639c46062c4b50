// Package sqs feeds job events from an SQS queue to the job executor.
package sqs

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/logging"
	"github.com/uber-go/tally/v4"
)

const (
	msgSubScope = "msg"

	ProcessMessageMetricName   = "process"
	ReceiveMessageMetricName   = "receive"
	DeleteMessageMetricName    = "delete"
	ChangeVisibilityMetricName = "change_visibility"

	Latency = "latency"
	Success = "success"
	Error   = "error"

	// DefaultVisibilityTimeout is how long a received message stays hidden
	// from other consumers. It is extended every DefaultHeartbeatInterval
	// while the job runs.
	DefaultVisibilityTimeout = 5 * time.Minute
	DefaultHeartbeatInterval = time.Minute
)

type Worker struct {
	Queue             Queue
	QueueURL          string
	MessageProcessor  MessageProcessor
	VisibilityTimeout time.Duration
	Scope             tally.Scope
	Logger            logging.Logger
}

func NewWorker(ctx context.Context, scope tally.Scope, queueURL string, region string, handler eventHandler, logger logging.Logger) (*Worker, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "error loading aws config for sqs worker")
	}
	scope = scope.SubScope("aws.sqs")
	sqsQueueWrapper := &QueueWithStats{
		Queue:    sqs.NewFromConfig(cfg),
		Scope:    scope,
		QueueURL: queueURL,
	}

	processor := &JobEventProcessorStats{
		MessageProcessor: &JobEventProcessor{
			Handler:           handler,
			Queue:             sqsQueueWrapper,
			QueueURL:          queueURL,
			VisibilityTimeout: DefaultVisibilityTimeout,
			HeartbeatInterval: DefaultHeartbeatInterval,
			Logger:            logger,
		},
		Scope: scope.SubScope(msgSubScope).SubScope(ProcessMessageMetricName),
	}

	return &Worker{
		Queue:             sqsQueueWrapper,
		QueueURL:          queueURL,
		MessageProcessor:  processor,
		VisibilityTimeout: DefaultVisibilityTimeout,
		Scope:             scope.SubScope(msgSubScope),
		Logger:            logger,
	}, nil
}

// Work receives and processes messages until ctx is canceled. Messages are
// processed one at a time and the next one is only received once the
// previous one is done.
func (w *Worker) Work(ctx context.Context) {
	messages := make(chan types.Message)
	// one message is in flight at a time, so the ack never blocks
	processed := make(chan struct{}, 1)
	// Used to synchronize stopping message retrieval and processing
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.processMessages(ctx, messages, processed)
	}()
	request := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(w.QueueURL),
		MaxNumberOfMessages: 1,
		VisibilityTimeout:   int32(w.VisibilityTimeout / time.Second),
		WaitTimeSeconds:     20, // max duration long polling
	}
	w.receiveMessages(ctx, messages, processed, request)
	wg.Wait()
}

func (w *Worker) receiveMessages(ctx context.Context, messages chan<- types.Message, processed <-chan struct{}, request *sqs.ReceiveMessageInput) {
	defer close(messages)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			response, err := w.Queue.ReceiveMessage(ctx, request)
			if err != nil {
				if ctx.Err() == nil {
					w.Logger.WarnContext(ctx, "unable to receive messages", logging.ErrField(err))
				}
				continue
			}
			for _, message := range response.Messages {
				select {
				case messages <- message:
				case <-ctx.Done():
					return
				}
				select {
				case <-processed:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (w *Worker) processMessages(ctx context.Context, messages <-chan types.Message, processed chan<- struct{}) {
	for message := range messages {
		w.processMessage(ctx, message)
		processed <- struct{}{}
	}
}

func (w *Worker) processMessage(ctx context.Context, message types.Message) {
	err := w.MessageProcessor.ProcessMessage(ctx, message)
	if err != nil {
		w.Logger.ErrorContext(ctx, "unable to process message", map[string]interface{}{
			"message_id": aws.ToString(message.MessageId),
			"err":        err.Error(),
		})
		return
	}

	// Since we've successfully processed the message, let's go ahead and delete it from the queue
	_, err = w.Queue.DeleteMessage(context.WithoutCancel(ctx), &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(w.QueueURL),
		ReceiptHandle: message.ReceiptHandle,
	})
	if err != nil {
		w.Logger.ErrorContext(ctx, "unable to delete message", logging.ErrField(err))
	}
}
