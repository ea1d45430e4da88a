package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
)

const (
	msgMissingToken  = "отсутствует токен авторизации"
	msgInvalidToken  = "недействительный токен"
	msgForbidden     = "доступ запрещен"
	msgInvalidScope  = "некорректный ID бизнеса"
	tokenLeeway      = 5 * time.Second
	businessIDVarKey = "businessId"
)

// Role роль пользователя из токена
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

// Principal аутентифицированный пользователь
type Principal struct {
	UserID            int64
	BusinessProfileID *int64 // задан для вендора
	Role              Role
}

// Claims полезная нагрузка JWT. Subject - ID пользователя.
type Claims struct {
	Role              Role   `json:"role"`
	BusinessProfileID *int64 `json:"business_profile_id,omitempty"`
	jwt.RegisteredClaims
}

type principalKey struct{}

// WithPrincipal кладет пользователя в контекст
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// GetPrincipal пользователь из контекста (после Auth)
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Auth проверяет Bearer JWT (HMAC) и кладет Principal в контекст
func Auth(secret, issuer string, logger handlers.Logger) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			parts := strings.Fields(header)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				handlers.RespondUnauthorized(w, msgMissingToken)
				return
			}

			principal, err := ParseToken(parts[1], key, issuer)
			if err != nil {
				logger.Warn("Auth: %s %s - invalid token: %v", r.Method, r.URL.Path, err)
				handlers.RespondUnauthorized(w, msgInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// ParseToken проверяет подпись, срок и издателя токена
func ParseToken(raw string, key []byte, issuer string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithLeeway(tokenLeeway),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	var claims Claims
	if _, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) { return key, nil }, opts...); err != nil {
		return Principal{}, err
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Principal{}, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	switch claims.Role {
	case RoleCustomer, RoleAdmin:
	case RoleVendor:
		if claims.BusinessProfileID == nil {
			return Principal{}, errors.New("vendor token without business_profile_id")
		}
	default:
		return Principal{}, fmt.Errorf("unknown role %q", claims.Role)
	}

	return Principal{UserID: userID, BusinessProfileID: claims.BusinessProfileID, Role: claims.Role}, nil
}

// RequireRole пропускает только перечисленные роли
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := GetPrincipal(r.Context())
			if !ok {
				handlers.RespondUnauthorized(w, msgMissingToken)
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			handlers.RespondForbidden(w, msgForbidden)
		})
	}
}

// CanAccessBusiness вендор работает только со своим бизнесом из пути, админ - с любым
func CanAccessBusiness(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := GetPrincipal(r.Context())
		if !ok {
			handlers.RespondUnauthorized(w, msgMissingToken)
			return
		}

		businessID, err := strconv.ParseInt(mux.Vars(r)[businessIDVarKey], 10, 64)
		if err != nil || businessID <= 0 {
			handlers.RespondBadRequest(w, msgInvalidScope)
			return
		}

		if p.Role == RoleAdmin || (p.BusinessProfileID != nil && *p.BusinessProfileID == businessID) {
			next.ServeHTTP(w, r)
			return
		}
		handlers.RespondForbidden(w, msgForbidden)
	})
}
