package storage

import (
	"context"
	"io"

	"github.com/graymeta/stow"
	// registers the supported stow kinds
	_ "github.com/graymeta/stow/azure"
	_ "github.com/graymeta/stow/google"
	_ "github.com/graymeta/stow/local"
	"github.com/pkg/errors"
	"github.com/runatlantis/packagebuilder/server/config/valid"
	"github.com/runatlantis/packagebuilder/server/models"
)

// encryptedKinds always encrypt at rest, or, for local, leave it to the
// host. S3 is served by S3Client, which can request SSE per object.
var encryptedKinds = map[string]bool{
	"google": true,
	"azure":  true,
	"local":  true,
}

// ErrEncryptionUnsupported is returned when server-side encryption is
// requested from a stow backend that can't honor it.
var ErrEncryptionUnsupported = errors.New("server-side encryption is not supported by this backend")

// StowClient serves non-AWS deployments. Buckets map onto stow containers.
type StowClient struct {
	Location stow.Location
	Kind     string
}

func NewStowClient(cfg valid.StoreConfig) (*StowClient, error) {
	location, err := stow.Dial(cfg.Kind, cfg.Config)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s storage", cfg.Kind)
	}

	return &StowClient{
		Location: location,
		Kind:     cfg.Kind,
	}, nil
}

func (c *StowClient) Get(ctx context.Context, ref models.ObjectRef) (io.ReadCloser, error) {
	container, err := c.Location.Container(ref.Bucket)
	if err != nil {
		return nil, &ContainerNotFoundError{Container: ref.Bucket, Err: err}
	}

	item, err := container.Item(ref.Key)
	if err != nil {
		if errors.Is(err, stow.ErrNotFound) {
			return nil, &ItemNotFoundError{Ref: ref, Err: err}
		}
		return nil, errors.Wrapf(err, "getting item %s", ref)
	}

	r, err := item.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "reading item %s", ref)
	}
	return r, nil
}

func (c *StowClient) Put(ctx context.Context, ref models.ObjectRef, body io.ReadSeeker, opts PutOptions) error {
	if opts.ServerSideEncryption && !encryptedKinds[c.Kind] {
		return errors.Wrapf(ErrEncryptionUnsupported, "putting item %s to %s storage", ref, c.Kind)
	}

	container, err := c.Location.Container(ref.Bucket)
	if err != nil {
		return &ContainerNotFoundError{Container: ref.Bucket, Err: err}
	}

	size, err := body.Seek(0, io.SeekEnd)
	if err != nil {
		return errors.Wrap(err, "measuring body")
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "rewinding body")
	}

	if _, err := container.Put(ref.Key, body, size, nil); err != nil {
		return errors.Wrapf(err, "writing item %s", ref)
	}
	return nil
}
