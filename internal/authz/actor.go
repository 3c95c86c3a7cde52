package authz

import "context"

// Actor is the authenticated caller as read from the access token.
type Actor struct {
	ID    string   `json:"id"`
	Name  string   `json:"name,omitempty"`
	Role  string   `json:"role"`
	Roles []string `json:"roles"`
}

// EffectiveRoles is the union of Role and Roles without duplicates.
func (a *Actor) EffectiveRoles() []string {
	seen := make(map[string]struct{}, len(a.Roles)+1)
	out := make([]string, 0, len(a.Roles)+1)
	for _, r := range append([]string{a.Role}, a.Roles...) {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (a *Actor) HasAnyRole(roles ...string) bool {
	for _, held := range a.EffectiveRoles() {
		for _, r := range roles {
			if held == r {
				return true
			}
		}
	}
	return false
}

type actorKey struct{}

// WithActor stores the actor on ctx.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor stored on ctx, or nil.
func ActorFrom(ctx context.Context) *Actor {
	a, _ := ctx.Value(actorKey{}).(*Actor)
	return a
}
