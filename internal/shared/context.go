package shared

import "context"

// Roles recognised by the application.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// Actor identifies the authenticated caller of a mutating operation.
type Actor struct {
	ID   int64
	Name string
	Role string
}

// SystemActor attributes server-initiated compensating movements where no
// real user is in context (e.g. reconciling an order update).
var SystemActor = Actor{ID: 0, Name: "system", Role: RoleAdmin}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context. The second return value
// is false when no authenticated actor is present.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
