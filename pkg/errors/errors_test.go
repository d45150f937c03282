package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "fetch catalog")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped error to unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected cause in message, got %q", err.Error())
	}
}

func TestAsFindsTypedErrorThroughFmtWrap(t *testing.T) {
	base := New(CodeNotFound, "product not in catalog")
	wrapped := fmt.Errorf("add item: %w", base)

	typed := As(wrapped)
	if typed == nil || typed.Code() != CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", typed)
	}
	if !IsCode(wrapped, CodeNotFound) {
		t.Fatal("IsCode should match the wrapped code")
	}
	if IsCode(stdErrors.New("plain"), CodeNotFound) {
		t.Fatal("IsCode should not match untyped errors")
	}
}

func TestMetadataFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected fallback status %d", meta.HTTPStatus)
	}
	if MetadataFor(CodeNotReady).HTTPStatus != http.StatusServiceUnavailable {
		t.Fatal("not ready should map to 503")
	}
}

func TestNilErrorAccessors(t *testing.T) {
	var e *Error
	if e.Code() != CodeInternal || e.Message() != "" || e.Details() != nil || e.Error() != "" {
		t.Fatal("nil error accessors should be safe")
	}
}

func TestDumpChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", Wrap(CodeDependency, stdErrors.New("inner"), "save cart"))
	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %q", d.Code)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected three chain entries, got %d: %v", len(d.Chain), d.Chain)
	}
}
