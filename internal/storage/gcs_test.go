package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestObjectName(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	name, ct, err := ObjectName(KindGCash, pngHeader, at)
	if err != nil {
		t.Fatalf("ObjectName: %v", err)
	}
	if ct != "image/png" {
		t.Fatalf("expected image/png, got %s", ct)
	}
	if !strings.HasPrefix(name, "proofs/gcash/2024/05/") || !strings.HasSuffix(name, ".png") {
		t.Fatalf("unexpected object name %s", name)
	}
}

func TestObjectNameRejectsUnknownInput(t *testing.T) {
	at := time.Now()
	if _, _, err := ObjectName("selfie", pngHeader, at); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if _, _, err := ObjectName(KindDiscountID, []byte("plain text body"), at); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestDisabledProofStore(t *testing.T) {
	if _, err := NewDisabledProofStore().Save(context.Background(), KindGCash, pngHeader); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
