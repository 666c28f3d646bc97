// Package userctx переносит личность запроса от auth middleware к хендлерам.
package userctx

import (
	"context"
	"strings"
)

type userIDKey struct{}

// WithUserID кладёт id в контекст; пробелы по краям срезаются
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, strings.TrimSpace(userID))
}

// GetUserID: пустой id равносилен отсутствию личности
func GetUserID(ctx context.Context) (string, bool) {
	userID, _ := ctx.Value(userIDKey{}).(string)
	if userID == "" {
		return "", false
	}
	return userID, true
}
