package api

import "context"

// contextWithSessionID attaches a session ID to the context.
func contextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// sessionIDFromContext reads the session ID set by requireSession.
func sessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}
