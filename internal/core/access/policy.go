// Package access holds the static route policy that decides whether a request
// may reach its handler.
package access

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/gobwas/glob"

	"github.com/99minutos/task-api/internal/core/domain"
)

// Level is the kind of check a Requirement performs.
type Level int

const (
	LevelAuthenticated Level = iota
	LevelPublic
	LevelRole
)

// Requirement is what a matched route demands from the caller.
type Requirement struct {
	Level Level
	Role  domain.Role
}

func Public() Requirement        { return Requirement{Level: LevelPublic} }
func Authenticated() Requirement { return Requirement{Level: LevelAuthenticated} }

// RequireRole demands an exact role. ADMIN does not satisfy a USER rule.
func RequireRole(r domain.Role) Requirement {
	return Requirement{Level: LevelRole, Role: r}
}

func (r Requirement) String() string {
	switch r.Level {
	case LevelPublic:
		return "public"
	case LevelRole:
		return "role(" + r.Role.String() + ")"
	default:
		return "authenticated"
	}
}

// Check decides the requirement for p, which is nil for anonymous requests.
func (r Requirement) Check(p *domain.Principal) error {
	switch r.Level {
	case LevelPublic:
		return nil
	case LevelRole:
		if p == nil {
			return domain.ErrUnauthenticated
		}
		if !p.HasRole(r.Role) {
			return domain.ErrForbidden
		}
		return nil
	default:
		if p == nil {
			return domain.ErrUnauthenticated
		}
		return nil
	}
}

// Rule maps a method and a path pattern to a requirement. Method "" or "*"
// matches every method. Pattern segments are separated by '/': "*" matches
// inside one segment and "**" matches across segments. A trailing "/**" also
// matches the bare prefix, so "/health/**" covers "/health".
type Rule struct {
	Method      string
	Pattern     string
	Requirement Requirement
}

type compiledRule struct {
	Rule
	matchers []glob.Glob
}

func (c compiledRule) matches(method, p string) bool {
	if c.Method != "" && c.Method != "*" && !strings.EqualFold(c.Method, method) {
		return false
	}
	for _, m := range c.matchers {
		if m.Match(p) {
			return true
		}
	}
	return false
}

// Policy is an ordered, first-match-wins rule table. It is read-only after
// NewPolicy and safe for concurrent use.
type Policy struct {
	rules []compiledRule
}

// NewPolicy compiles rules in order.
func NewPolicy(rules ...Rule) (*Policy, error) {
	p := &Policy{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		if !strings.HasPrefix(r.Pattern, "/") {
			return nil, fmt.Errorf("access rule %d: pattern %q must start with '/'", i, r.Pattern)
		}
		g, err := glob.Compile(r.Pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("access rule %d: compile %q: %w", i, r.Pattern, err)
		}
		cr := compiledRule{Rule: r, matchers: []glob.Glob{g}}

		if prefix, ok := strings.CutSuffix(r.Pattern, "/**"); ok {
			if prefix == "" {
				prefix = "/"
			}
			bare, err := glob.Compile(prefix, '/')
			if err != nil {
				return nil, fmt.Errorf("access rule %d: compile %q: %w", i, prefix, err)
			}
			cr.matchers = append(cr.matchers, bare)
		}
		p.rules = append(p.rules, cr)
	}
	return p, nil
}

// MustPolicy is NewPolicy for static tables; it panics on a bad pattern.
func MustPolicy(rules ...Rule) *Policy {
	p, err := NewPolicy(rules...)
	if err != nil {
		panic(err)
	}
	return p
}

// Match returns the requirement of the first rule matching the request, or
// Authenticated when nothing matches.
func (p *Policy) Match(method, requestPath string) Requirement {
	cleaned := cleanPath(requestPath)
	for _, r := range p.rules {
		if r.matches(method, cleaned) {
			return r.Requirement
		}
	}
	return Authenticated()
}

// Evaluate returns nil when principal may call method on requestPath,
// domain.ErrUnauthenticated when a principal is needed but missing, and
// domain.ErrForbidden when the principal lacks the required role.
func (p *Policy) Evaluate(method, requestPath string, principal *domain.Principal) error {
	return p.Match(method, requestPath).Check(principal)
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}

// DefaultRules is the route table of the task API.
func DefaultRules() []Rule {
	return []Rule{
		{Method: http.MethodPost, Pattern: "/auth/**", Requirement: Public()},
		{Method: "*", Pattern: "/health/**", Requirement: Public()},
		{Method: http.MethodGet, Pattern: "/metrics", Requirement: Public()},
		{Method: http.MethodGet, Pattern: "/swagger/**", Requirement: Public()},
		{Method: "*", Pattern: "/api/admin/**", Requirement: RequireRole(domain.RoleAdmin)},
	}
}
