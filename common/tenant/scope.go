// Package tenant carries the access-control scope every store operation
// must be bound to. The tenant identifier never travels as ambient state:
// it is an explicit value threaded through each call chain, and a zero
// Scope is rejected by every repository method.
package tenant

import (
	"strings"

	"github.com/clipvault/clipvault/common/clerr"
)

// Scope binds a store operation to a single tenant. The id is unexported
// so a Scope can only be built through NewScope.
type Scope struct {
	id string
}

// NewScope validates the verified tenant identifier handed over by the
// identity collaborator and returns a bound scope.
func NewScope(tenantID string) (Scope, error) {
	id := strings.TrimSpace(tenantID)
	if id == "" {
		return Scope{}, clerr.Invalidf("tenant id is empty")
	}
	return Scope{id: id}, nil
}

// TenantID returns the bound tenant identifier.
func (s Scope) TenantID() string {
	return s.id
}

// Valid reports whether the scope is bound to a tenant.
func (s Scope) Valid() bool {
	return s.id != ""
}

// SystemScope is the privileged capability for system-write-only rows
// (content enrichment fields, the tag catalog, enrichment jobs). It is a
// distinct type so tenant-facing code cannot pass a tenant scope where a
// system scope is required, or the other way around. Handlers never hold
// one; only the enrichment write-back path and maintenance code do.
type SystemScope struct {
	actor string
}

// NewSystemScope returns a privileged scope. The actor names the system
// component for audit logging.
func NewSystemScope(actor string) SystemScope {
	if actor == "" {
		actor = "system"
	}
	return SystemScope{actor: actor}
}

// Actor returns the audited system actor name.
func (s SystemScope) Actor() string {
	return s.actor
}
