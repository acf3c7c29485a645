package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxSellerID contextKey = "seller_id"

// SellerIDFromContext returns the authenticated seller, if any.
func SellerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	v, ok := ctx.Value(ctxSellerID).(uuid.UUID)
	return v, ok && v != uuid.Nil
}

// WithSellerID injects the seller identifier into the context.
func WithSellerID(ctx context.Context, sellerID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSellerID, sellerID)
}
