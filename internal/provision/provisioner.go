package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/streamforge-labs/streamforge-go/internal/launch"
)

// Namespace is the fixed key prefix all staged artifacts live under.
const Namespace = ".streamforge"

const artifactContentType = "application/octet-stream"

// Provisioner stages local artifacts into cluster-visible storage and
// produces the descriptors the resource manager localizes containers from.
type Provisioner struct {
	store  ObjectStore
	bucket string
	logger *slog.Logger
}

func NewProvisioner(store ObjectStore, bucket string, logger *slog.Logger) (*Provisioner, error) {
	if store == nil {
		return nil, errors.New("object store is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("bucket is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{store: store, bucket: bucket, logger: logger}, nil
}

// DestinationKey derives the deterministic staging key for an artifact:
// provisioning the same file for the same application overwrites in place
// rather than accumulating copies.
func DestinationKey(appID string, localPath string) string {
	return path.Join(Namespace, appID, filepath.Base(localPath))
}

// Provision copies the local artifact to its staging key, then stats the
// remote copy and builds the descriptor from what the store reports; the
// container sees the remote object, so the remote size and mtime are
// authoritative. Any copy or stat error aborts the launch assembly and is
// returned unmodified semantics-wise (wrapped with the failing operation).
func (p *Provisioner) Provision(ctx context.Context, localPath string, appID string) (launch.ResourceDescriptor, error) {
	if strings.TrimSpace(appID) == "" {
		return launch.ResourceDescriptor{}, errors.New("app id is required")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return launch.ResourceDescriptor{}, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return launch.ResourceDescriptor{}, fmt.Errorf("stat artifact: %w", err)
	}

	key := DestinationKey(appID, localPath)
	p.logger.Info("staging artifact", "local_path", localPath, "bucket", p.bucket, "key", key)

	if err := p.store.Put(ctx, p.bucket, key, f, stat.Size(), artifactContentType); err != nil {
		return launch.ResourceDescriptor{}, fmt.Errorf("copy artifact to %s/%s: %w", p.bucket, key, err)
	}

	return p.RegisterExisting(ctx, key)
}

// RegisterExisting builds a descriptor for an artifact already staged at
// the given key.
func (p *Provisioner) RegisterExisting(ctx context.Context, key string) (launch.ResourceDescriptor, error) {
	info, err := p.store.Stat(ctx, p.bucket, key)
	if err != nil {
		return launch.ResourceDescriptor{}, fmt.Errorf("stat staged artifact %s/%s: %w", p.bucket, key, err)
	}
	return launch.ResourceDescriptor{
		Location:     fmt.Sprintf("s3://%s/%s", p.bucket, key),
		SizeBytes:    info.Size,
		LastModified: info.LastModified,
		Visibility:   launch.VisibilityApplication,
		Type:         launch.TypeFile,
	}, nil
}
