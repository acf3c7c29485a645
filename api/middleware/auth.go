package middleware

import (
	"net/http"
	"strings"

	"github.com/craftmarket/bundles-backend/api/responses"
	pkgAuth "github.com/craftmarket/bundles-backend/pkg/auth"
	"github.com/craftmarket/bundles-backend/pkg/config"
	pkgerrors "github.com/craftmarket/bundles-backend/pkg/errors"
	"github.com/craftmarket/bundles-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the seller.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseSellerToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithSellerID(r.Context(), claims.SellerID)
			if logg != nil {
				ctx = logg.WithSellerID(ctx, claims.SellerID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
