package context_test

import (
	"context"
	"testing"

	internalContext "github.com/runatlantis/packagebuilder/server/context"
	"github.com/stretchr/testify/assert"
)

func TestExtractFields(t *testing.T) {
	ctx := internalContext.WithFields(context.Background(), map[internalContext.Key]string{
		internalContext.JobIDKey: "job-42",
		internalContext.StateKey: "built",
	})

	assert.Equal(t, map[string]interface{}{
		"job_id": "job-42",
		"state":  "built",
	}, internalContext.ExtractFields(ctx))
}

func TestExtractFields_Empty(t *testing.T) {
	assert.Empty(t, internalContext.ExtractFields(context.Background()))
}
