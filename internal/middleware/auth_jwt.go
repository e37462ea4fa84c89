package middleware

import (
	"errors"
	"net/http"
	"strings"

	"grocery/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
)

var errBadClaims = errors.New("invalid access token claims")

// 発行側(auth.JWTIssuer)と同じ形。exp/iat は RegisteredClaims が検証する。
type accessClaims struct {
	UserID       int64      `json:"sub"`
	Role         model.Role `json:"role"`
	TokenVersion int        `json:"tv"`
	jwt.RegisteredClaims
}

func (c *accessClaims) check() error {
	if c.UserID <= 0 || !c.Role.Valid() || c.TokenVersion < 0 {
		return errBadClaims
	}
	return nil
}

// Authorization: Bearer <jwt> を検証して、sub/role/tv を echo.Context に積む。
// token_version の照合は TokenVersionGuard 側。
func AuthJWT(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get("Authorization"))
			if !ok {
				return unauthorizedJSON(c)
			}

			claims, err := parseAccessToken(parser, raw, key)
			if err != nil {
				return unauthorizedJSON(c)
			}

			c.Set(CtxUserIDKey, claims.UserID)
			c.Set(CtxUserRoleKey, string(claims.Role))
			c.Set(CtxTokenVersionKey, claims.TokenVersion)
			return next(c)
		}
	}
}

func bearerToken(authz string) (string, bool) {
	scheme, token, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func parseAccessToken(parser *jwt.Parser, raw string, key []byte) (*accessClaims, error) {
	claims := &accessClaims{}
	token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errBadClaims
	}
	if err := claims.check(); err != nil {
		return nil, err
	}
	return claims, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

func unauthorizedJSON(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
}
