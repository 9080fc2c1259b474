package auth

import "strings"

// Policy answers the two authorization questions in this system:
// who may register an account, and who gets the admin role.
//
// Both are fixed allow-lists loaded from configuration at startup. The
// role is never stored — IsAdmin is re-evaluated from the session email on
// every request, so a config change plus restart is all it takes to grant
// or revoke admin. There is no runtime mutation path.
//
// Lookups are case-insensitive: "Admin@tie.ust" and "admin@tie.ust" are
// the same identity.
type Policy struct {
	admins     map[string]struct{}
	registrant map[string]struct{}
}

// NewPolicy builds a Policy from the two allow-lists.
//
// An empty registration list means open registration (any email may sign
// up). An empty admin list means nobody is admin — the admin API is
// unreachable, which is a valid deployment for a single-team instance
// that only uses the student views.
func NewPolicy(adminEmails, allowedEmails []string) *Policy {
	p := &Policy{
		admins:     make(map[string]struct{}, len(adminEmails)),
		registrant: make(map[string]struct{}, len(allowedEmails)),
	}
	for _, e := range adminEmails {
		p.admins[normalize(e)] = struct{}{}
	}
	for _, e := range allowedEmails {
		p.registrant[normalize(e)] = struct{}{}
	}
	return p
}

// IsAdmin reports whether the identity with the given email holds the
// admin role. Pure and synchronous — no failure mode.
func (p *Policy) IsAdmin(email string) bool {
	if email == "" {
		return false
	}
	_, ok := p.admins[normalize(email)]
	return ok
}

// CanRegister reports whether the given email is permitted to create an
// account. With no allow-list configured, everyone can.
func (p *Policy) CanRegister(email string) bool {
	if len(p.registrant) == 0 {
		return true
	}
	_, ok := p.registrant[normalize(email)]
	return ok
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
