// Package storage is the blob storage boundary: fetching job inputs and
// toolchain archives, and uploading the assembled package.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/config/valid"
	"github.com/runatlantis/packagebuilder/server/models"
)

type PutOptions struct {
	ServerSideEncryption bool
}

// Client reads and writes objects by bucket and key.
type Client interface {
	Get(ctx context.Context, ref models.ObjectRef) (io.ReadCloser, error)
	Put(ctx context.Context, ref models.ObjectRef, body io.ReadSeeker, opts PutOptions) error
}

type ContainerNotFoundError struct {
	Container string
	Err       error
}

func (c *ContainerNotFoundError) Error() string {
	return fmt.Sprintf("container %s not found: %s", c.Container, c.Err)
}

func (c *ContainerNotFoundError) Unwrap() error {
	return c.Err
}

type ItemNotFoundError struct {
	Ref models.ObjectRef
	Err error
}

func (i *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %s not found: %s", i.Ref, i.Err)
}

func (i *ItemNotFoundError) Unwrap() error {
	return i.Err
}

// NewClient builds the client for the configured backend. sess is only used
// by the S3 backend.
func NewClient(cfg valid.StoreConfig, sess *session.Session) (Client, error) {
	switch cfg.BackendType {
	case valid.S3Backend:
		return NewS3Client(sess, cfg.Region), nil
	case valid.StowBackend:
		return NewStowClient(cfg)
	}
	return nil, errors.Errorf("unsupported storage backend %q", cfg.BackendType)
}
