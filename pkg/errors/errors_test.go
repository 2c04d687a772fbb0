package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := Wrap(CodeNotFound, cause, "share request not found")

	if wrapped.Code() != CodeNotFound {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected cause to survive wrapping")
	}
}

func TestAsFindsTypedError(t *testing.T) {
	inner := New(CodeConflict, "duplicate active share")
	typed := As(inner)
	if typed == nil || typed.Code() != CodeConflict {
		t.Fatalf("unexpected typed error %v", typed)
	}
	if As(errors.New("plain")) != nil {
		t.Fatal("expected nil for untyped error")
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("BOGUS"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", meta.HTTPStatus)
	}
}

func TestDependencyMissingIsServerError(t *testing.T) {
	meta := MetadataFor(CodeDependencyMissing)
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", meta.HTTPStatus)
	}
	if meta.DetailsAllowed {
		t.Fatal("dependency-missing details must not leak to callers")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "validation failed").WithDetails(map[string]string{"item_type": "is required"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["item_type"] != "is required" {
		t.Fatalf("unexpected details %v", err.Details())
	}
}
