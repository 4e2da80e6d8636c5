// Package storage uploads payment and ID proof photos to Google Cloud Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"bakerypos/internal/config"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// Proof kinds
const (
	KindGCash      = "gcash"
	KindDiscountID = "discount_id"
	KindOrder      = "order_payment"
)

var (
	ErrDisabled        = errors.New("proof storage is not configured")
	ErrUnsupportedType = errors.New("unsupported proof file type")
	ErrUnknownKind     = errors.New("unknown proof kind")
)

var allowedMimeTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ProofStore persists a proof image and returns its public URL.
type ProofStore interface {
	Save(ctx context.Context, kind string, data []byte) (string, error)
}

type gcsProofStore struct {
	client *storage.Client
	bucket string
	now    func() time.Time
}

// NewGCSProofStore prefers explicit credentials JSON and falls back to
// application default credentials.
func NewGCSProofStore(ctx context.Context, cfg config.StorageConfig) (ProofStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}
	if _, err := client.Bucket(cfg.Bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("gcs bucket %q not found or not accessible: %w", cfg.Bucket, err)
	}
	return &gcsProofStore{client: client, bucket: cfg.Bucket, now: time.Now}, nil
}

func (s *gcsProofStore) Save(ctx context.Context, kind string, data []byte) (string, error) {
	name, contentType, err := ObjectName(kind, data, s.now())
	if err != nil {
		return "", err
	}

	wc := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("failed to upload proof: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name), nil
}

// ObjectName validates the payload type and builds proofs/<kind>/<yyyy>/<mm>/<uuid><ext>.
func ObjectName(kind string, data []byte, at time.Time) (string, string, error) {
	switch kind {
	case KindGCash, KindDiscountID, KindOrder:
	default:
		return "", "", ErrUnknownKind
	}
	contentType := http.DetectContentType(data)
	ext, ok := allowedMimeTypes[contentType]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	name := path.Join("proofs", kind, at.Format("2006"), at.Format("01"), uuid.NewString()+ext)
	return name, contentType, nil
}

type disabledProofStore struct{}

// NewDisabledProofStore rejects every upload. Used when GCS is not configured.
func NewDisabledProofStore() ProofStore {
	return disabledProofStore{}
}

func (disabledProofStore) Save(context.Context, string, []byte) (string, error) {
	return "", ErrDisabled
}
