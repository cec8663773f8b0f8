package http

import (
	"context"

	"github.com/Eroo144/instaclone/internal/domain"
)

func withIdentity(ctx context.Context, ident domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

func identityFrom(ctx context.Context) domain.Identity {
	ident, _ := ctx.Value(identityKey).(domain.Identity)
	return ident
}
