// Package models holds the types shared across the job pipeline.
package models

import (
	"fmt"
	"path"
	"strings"
)

// ObjectRef identifies one object in blob storage.
type ObjectRef struct {
	Bucket string
	Key    string
}

func NewObjectRef(bucket, key string) ObjectRef {
	return ObjectRef{Bucket: bucket, Key: key}
}

// Name returns the final path segment of the key.
func (o ObjectRef) Name() string {
	return path.Base(strings.TrimSuffix(o.Key, "/"))
}

func (o ObjectRef) String() string {
	return fmt.Sprintf("%s/%s", o.Bucket, o.Key)
}

// Job is a single pipeline invocation. It only lives for the duration of
// one run and is never persisted.
type Job struct {
	ID     string
	Input  ObjectRef
	Output ObjectRef
}

// BuildResult points at the one binary produced by a build.
type BuildResult struct {
	Artifact string
}
