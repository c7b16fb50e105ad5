package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	base := NotFound("transaction %d not found", 7)
	wrapped := fmt.Errorf("delete: %w", base)
	if got := KindOf(wrapped); got != KindNotFound {
		t.Fatalf("expected not_found got %s", got)
	}
	if Message(wrapped) != "transaction 7 not found" {
		t.Fatalf("unexpected message %q", Message(wrapped))
	}
}

func TestUnclassifiedIsInternal(t *testing.T) {
	err := errors.New("connection reset")
	if KindOf(err) != KindInternal {
		t.Fatalf("expected internal")
	}
	if Message(err) != "internal server error" {
		t.Fatalf("internal details leaked: %q", Message(err))
	}
	if Message(Internal(err)) != "internal server error" {
		t.Fatalf("internal details leaked through Internal()")
	}
	if !errors.Is(Internal(err), err) {
		t.Fatalf("Internal should unwrap to its cause")
	}
}

func TestStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:   http.StatusNotFound,
		KindValidation: http.StatusBadRequest,
		KindConflict:   http.StatusBadRequest,
		KindAuth:       http.StatusForbidden,
		KindInternal:   http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := Status(kind); got != want {
			t.Errorf("%s: expected %d got %d", kind, want, got)
		}
	}
}

func TestIs(t *testing.T) {
	if Is(nil, KindNotFound) {
		t.Fatalf("nil error must not match")
	}
	if !Is(Conflict("email taken"), KindConflict) {
		t.Fatalf("expected conflict")
	}
}
