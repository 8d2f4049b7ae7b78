package blob

import (
	"context"
	"fmt"
)

// Config selects and configures a backend.
type Config struct {
	Driver Driver
	// FSRoot is the directory root when Driver is fs (default ./blobdata).
	FSRoot string
	S3     S3Config
}

// Open returns the blob.Store described by cfg. An empty driver means fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver, err := ParseDriver(string(cfg.Driver))
	if err != nil {
		return nil, err
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		store, err := NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("open s3 blob store: %w", err)
		}
		return store, nil
	default:
		return NewMemory(), nil
	}
}
