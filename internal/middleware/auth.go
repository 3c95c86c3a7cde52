package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"backoffice/internal/authz"
	"backoffice/pkg/response"
)

const (
	ActorKey    = "actor"
	UserIDKey   = "userID"
	UserRoleKey = "userRole"
)

var (
	errMissingToken  = errors.New("authorization is missing")
	errBadAuthHeader = errors.New("invalid authorization format. Expected 'Bearer <token>'")
)

// ExtractToken reads the access token from the access_token cookie, falling back to the Authorization header.
func ExtractToken(c *gin.Context) (string, error) {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, nil
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errBadAuthHeader
	}
	return parts[1], nil
}

// ParseActor validates an HMAC-signed token and maps its claims onto an Actor.
// Claims: sub (required), role, roles[], name.
func ParseActor(tokenString string, secret []byte) (*authz.Actor, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, errors.New("token has no subject")
	}

	actor := &authz.Actor{ID: sub}
	actor.Role, _ = claims["role"].(string)
	actor.Name, _ = claims["name"].(string)
	if raw, ok := claims["roles"].([]interface{}); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok && s != "" {
				actor.Roles = append(actor.Roles, s)
			}
		}
	}
	return actor, nil
}

// RequireAuth validates the JWT and stores the Actor on both the gin and the request context.
// Role checks happen per operation in the service layer.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := ExtractToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		actor, err := ParseActor(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		c.Set(ActorKey, actor)
		c.Set(UserIDKey, actor.ID)
		c.Set(UserRoleKey, actor.Role)
		c.Request = c.Request.WithContext(authz.WithActor(c.Request.Context(), actor))

		c.Next()
	}
}

// RequireAnyRole must run after RequireAuth.
func RequireAnyRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromGin(c)
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, errMissingToken.Error()))
			return
		}
		if !actor.HasAnyRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, authz.ErrForbidden.Error()))
			return
		}
		c.Next()
	}
}

func ActorFromGin(c *gin.Context) *authz.Actor {
	v, ok := c.Get(ActorKey)
	if !ok {
		return nil
	}
	a, _ := v.(*authz.Actor)
	return a
}
