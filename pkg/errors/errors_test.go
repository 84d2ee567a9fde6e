package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCode(t *testing.T) {
	meta := MetadataFor(CodeValidation)
	if meta.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected 400 for validation, got %d", meta.HTTPStatus)
	}
	if !meta.DetailsAllowed {
		t.Fatal("validation errors must expose details")
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("BOGUS"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "provider unreachable")
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause in chain")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsThroughWrappedChain(t *testing.T) {
	inner := New(CodeAttemptsExceeded, "too many attempts")
	outer := fmt.Errorf("verify otp: %w", inner)
	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error through chain")
	}
	if typed.Code() != CodeAttemptsExceeded {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestIsCode(t *testing.T) {
	err := New(CodeConflict, "duplicate tracking code")
	if !IsCode(err, CodeConflict) {
		t.Fatal("expected conflict code match")
	}
	if IsCode(err, CodeNotFound) {
		t.Fatal("unexpected not-found match")
	}
	if IsCode(nil, CodeConflict) {
		t.Fatal("nil error must not match")
	}
}
