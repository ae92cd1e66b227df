package auth

import "context"

// Actor is the already-authenticated caller. It is passed explicitly into
// every scheduling operation.
type Actor struct {
	UserID string
	Roles  []string
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) Anonymous() bool {
	return a.UserID == ""
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok && !actor.Anonymous()
}
