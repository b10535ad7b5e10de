package domain

import (
	"net/url"
	"strings"
)

// CanWrite is the customer write capability check.
func CanWrite(roles RoleSet) bool {
	return roles.Contains(RoleCustomerWrite)
}

// Requirement is what a route demands of the caller.
type Requirement int

const (
	Public Requirement = iota
	// RequiresSession routes redirect anonymous callers to the sign-in surface.
	RequiresSession
	// GuestOnly routes redirect signed-in callers to the protected area.
	GuestOnly
)

const (
	SignInPath       = "/login"
	ProtectedHome    = "/customers"
	callbackURLParam = "callbackUrl"
)

// RouteRule binds a path prefix to a requirement.
type RouteRule struct {
	Prefix      string
	Requirement Requirement
}

// RoutePolicy evaluates navigation against an ordered list of prefix rules.
// The first matching rule wins; unmatched paths are public.
type RoutePolicy struct {
	rules []RouteRule
}

// NewRoutePolicy builds a policy from rules, evaluated in order.
func NewRoutePolicy(rules ...RouteRule) RoutePolicy {
	return RoutePolicy{rules: append([]RouteRule(nil), rules...)}
}

// DefaultRoutePolicy protects the customer and dashboard areas and keeps
// signed-in users away from the sign-in and registration pages.
func DefaultRoutePolicy() RoutePolicy {
	return NewRoutePolicy(
		RouteRule{Prefix: "/dashboard", Requirement: RequiresSession},
		RouteRule{Prefix: "/customers", Requirement: RequiresSession},
		RouteRule{Prefix: "/login", Requirement: GuestOnly},
		RouteRule{Prefix: "/register", Requirement: GuestOnly},
	)
}

// Decision is the outcome of evaluating a navigation.
type Decision struct {
	Allow    bool
	Redirect string
}

// Requirement returns the requirement of the first rule matching path.
func (p RoutePolicy) Requirement(path string) Requirement {
	for _, r := range p.rules {
		if strings.HasPrefix(path, r.Prefix) {
			return r.Requirement
		}
	}
	return Public
}

// Evaluate decides whether a navigation to path may proceed.
func (p RoutePolicy) Evaluate(path string, authenticated bool) Decision {
	switch p.Requirement(path) {
	case RequiresSession:
		if !authenticated {
			q := url.Values{callbackURLParam: []string{path}}
			return Decision{Redirect: SignInPath + "?" + q.Encode()}
		}
	case GuestOnly:
		if authenticated {
			return Decision{Redirect: ProtectedHome}
		}
	}
	return Decision{Allow: true}
}

// ResolveRedirect resolves a post sign-in callback target against baseURL.
// Relative paths are joined to baseURL, same-origin absolute URLs are kept and
// anything else lands on the protected home.
func ResolveRedirect(target, baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if strings.HasPrefix(target, "/") {
		return base + target
	}

	u, err := url.Parse(target)
	b, berr := url.Parse(base)
	if err == nil && berr == nil && u.Scheme != "" && u.Scheme == b.Scheme && u.Host == b.Host {
		return target
	}
	return base + ProtectedHome
}
