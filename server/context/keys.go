// Package context carries log fields through a context.Context so that every
// log line emitted while handling a job can be correlated.
package context

import (
	"context"
)

type Key string

const (
	JobIDKey        Key = "job_id"
	InvocationIDKey Key = "invocation_id"
	StateKey        Key = "state"
	InputKey        Key = "input"
	OutputKey       Key = "output"
	ErrKey          Key = "err"
)

func (k Key) String() string {
	return string(k)
}

// Keys that get pulled out of a context when logging.
var keys = []Key{JobIDKey, InvocationIDKey, StateKey, InputKey, OutputKey}

// WithFields returns a child context holding the provided fields.
func WithFields(ctx context.Context, fields map[Key]string) context.Context {
	for k, v := range fields {
		ctx = context.WithValue(ctx, k, v)
	}
	return ctx
}

func ExtractFields(ctx context.Context) map[string]interface{} {
	fields := make(map[string]interface{})
	for _, k := range keys {
		if v, ok := ctx.Value(k).(string); ok {
			fields[k.String()] = v
		}
	}
	return fields
}
