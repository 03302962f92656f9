// Package rbac maps roles to permissions and guards routes with them.
package rbac

import (
	"context"
	"strings"
)

// Checker answers permission questions for a fixed policy. Grants may be
// exact ("exam:take"), a prefix ending in '*' ("results:*"), or "*".
type Checker struct {
	exact    map[string]map[string]bool
	prefixes map[string][]string
}

func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	c := &Checker{exact: map[string]map[string]bool{}, prefixes: map[string][]string{}}
	for role, perms := range rp {
		c.exact[role] = map[string]bool{}
		for _, p := range perms {
			if strings.HasSuffix(p, "*") {
				c.prefixes[role] = append(c.prefixes[role], strings.TrimSuffix(p, "*"))
				continue
			}
			c.exact[role][p] = true
		}
	}
	return c
}

func (c *Checker) Has(role, perm string) bool {
	if c.exact[role][perm] {
		return true
	}
	for _, p := range c.prefixes[role] {
		if strings.HasPrefix(perm, p) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

func (c *Checker) All(role string, perms ...string) bool {
	for _, p := range perms {
		if !c.Has(role, p) {
			return false
		}
	}
	return true
}

// ---- role in context ----

type ctxKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKey{}, role)
}

func RoleFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}
