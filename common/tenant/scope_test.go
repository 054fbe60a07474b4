package tenant

import (
	"errors"
	"testing"

	"github.com/clipvault/clipvault/common/clerr"
)

func TestNewScope(t *testing.T) {
	scope, err := NewScope("tenant-42")
	if err != nil {
		t.Fatalf("NewScope failed: %v", err)
	}
	if !scope.Valid() {
		t.Fatal("expected a valid scope")
	}
	if scope.TenantID() != "tenant-42" {
		t.Fatalf("TenantID = %q", scope.TenantID())
	}
}

func TestNewScope_RejectsEmpty(t *testing.T) {
	for _, id := range []string{"", "   ", "\t\n"} {
		if _, err := NewScope(id); !errors.Is(err, clerr.ErrInvalidInput) {
			t.Errorf("NewScope(%q) error = %v, want ErrInvalidInput", id, err)
		}
	}
}

func TestNewScope_TrimsWhitespace(t *testing.T) {
	scope, err := NewScope("  tenant-1  ")
	if err != nil {
		t.Fatalf("NewScope failed: %v", err)
	}
	if scope.TenantID() != "tenant-1" {
		t.Fatalf("TenantID = %q, want trimmed id", scope.TenantID())
	}
}

func TestZeroScopeIsInvalid(t *testing.T) {
	var scope Scope
	if scope.Valid() {
		t.Fatal("zero scope must not be valid")
	}
}

func TestNewSystemScope_DefaultsActor(t *testing.T) {
	if got := NewSystemScope("").Actor(); got != "system" {
		t.Fatalf("Actor = %q, want system", got)
	}
	if got := NewSystemScope("enricher").Actor(); got != "enricher" {
		t.Fatalf("Actor = %q, want enricher", got)
	}
}
