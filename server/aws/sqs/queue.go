package sqs

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/uber-go/tally/v4"
)

// Queue is the subset of the sqs client the worker uses.
type Queue interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

// QueueWithStats records latency and outcome of every queue call.
type QueueWithStats struct {
	Queue
	Scope    tally.Scope
	QueueURL string
}

func (q *QueueWithStats) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	scope := q.Scope.SubScope(ReceiveMessageMetricName)

	timer := scope.Timer(Latency).Start()
	defer timer.Stop()

	response, err := q.Queue.ReceiveMessage(ctx, params, optFns...)
	if err != nil {
		scope.Counter(Error).Inc(1)
		return response, err
	}
	scope.Counter(Success).Inc(1)
	return response, nil
}

func (q *QueueWithStats) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	scope := q.Scope.SubScope(DeleteMessageMetricName)

	timer := scope.Timer(Latency).Start()
	defer timer.Stop()

	response, err := q.Queue.DeleteMessage(ctx, params, optFns...)
	if err != nil {
		scope.Counter(Error).Inc(1)
		return response, err
	}
	scope.Counter(Success).Inc(1)
	return response, nil
}

func (q *QueueWithStats) ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error) {
	scope := q.Scope.SubScope(ChangeVisibilityMetricName)

	timer := scope.Timer(Latency).Start()
	defer timer.Stop()

	response, err := q.Queue.ChangeMessageVisibility(ctx, params, optFns...)
	if err != nil {
		scope.Counter(Error).Inc(1)
		return response, err
	}
	scope.Counter(Success).Inc(1)
	return response, nil
}
