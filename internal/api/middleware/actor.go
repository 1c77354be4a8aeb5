package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/livehike/livehike/internal/api/models"
)

// ActorHeader carries the caller's user id. There is no authentication; the
// header only attributes reports and gates deletion.
const ActorHeader = "X-User-Id"

// MaxActorLength bounds the accepted header value.
const MaxActorLength = 128

type actorKey struct{}

// Actor resolves the acting user from ActorHeader, falling back to
// defaultUser when the header is absent or blank.
func Actor(defaultUser string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := strings.TrimSpace(r.Header.Get(ActorHeader))
			if len(actor) > MaxActorLength {
				problem := models.NewBadRequest(GetRequestID(r.Context()), "X-User-Id header is too long", []models.FieldError{
					{Field: ActorHeader, Message: "must be at most 128 characters", Code: models.CodeTooLong},
				})
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}
			if actor == "" {
				actor = defaultUser
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor returns the acting user, or "" outside the Actor middleware.
func GetActor(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok {
		return actor
	}
	return ""
}
