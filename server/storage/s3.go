package storage

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/models"
)

type S3Client struct {
	API s3iface.S3API
}

func NewS3Client(sess *session.Session, region string) *S3Client {
	cfg := aws.NewConfig()
	if region != "" {
		cfg = cfg.WithRegion(region)
	}
	return &S3Client{
		API: s3.New(sess, cfg),
	}
}

func (c *S3Client) Get(ctx context.Context, ref models.ObjectRef) (io.ReadCloser, error) {
	out, err := c.API.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) {
			switch aerr.Code() {
			case s3.ErrCodeNoSuchBucket:
				return nil, &ContainerNotFoundError{Container: ref.Bucket, Err: err}
			case s3.ErrCodeNoSuchKey:
				return nil, &ItemNotFoundError{Ref: ref, Err: err}
			}
		}
		return nil, errors.Wrapf(err, "getting object %s", ref)
	}
	return out.Body, nil
}

func (c *S3Client) Put(ctx context.Context, ref models.ObjectRef, body io.ReadSeeker, opts PutOptions) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
		Body:   body,
	}
	if opts.ServerSideEncryption {
		input.ServerSideEncryption = aws.String(s3.ServerSideEncryptionAes256)
	}

	if _, err := c.API.PutObjectWithContext(ctx, input); err != nil {
		return errors.Wrapf(err, "putting object %s", ref)
	}
	return nil
}
