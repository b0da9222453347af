package middleware

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_service/internal/auth"
	"github.com/congo-pay/wallet_service/internal/identity"
)

const principalKey = "principal"

// Authenticate accepts either HTTP Basic credentials or a Bearer access token
// and stores the resulting principal on the request.
func Authenticate(ids *identity.Service, tokens *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		scheme, value, _ := strings.Cut(authz, " ")
		value = strings.TrimSpace(value)

		var (
			principal identity.Principal
			err       error
		)
		switch strings.ToLower(scheme) {
		case "bearer":
			principal, err = tokens.Verify(c.UserContext(), value)
		case "basic":
			principal, err = basic(c, ids, value)
		default:
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="wallet"`)
			return fiber.NewError(http.StatusUnauthorized, "missing credentials")
		}
		if err != nil {
			if errors.Is(err, identity.ErrInvalidCredentials) || errors.Is(err, auth.ErrInvalidToken) ||
				errors.Is(err, auth.ErrTokenExpired) || errors.Is(err, auth.ErrTokenRevoked) {
				return fiber.NewError(http.StatusUnauthorized, err.Error())
			}
			return err
		}

		c.Locals(principalKey, principal)
		return c.Next()
	}
}

func basic(c *fiber.Ctx, ids *identity.Service, encoded string) (identity.Principal, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return identity.Principal{}, identity.ErrInvalidCredentials
	}
	username, password, ok := strings.Cut(string(raw), ":")
	if !ok {
		return identity.Principal{}, identity.ErrInvalidCredentials
	}
	user, err := ids.Authenticate(c.UserContext(), identity.Credentials{Username: username, Password: password})
	if err != nil {
		return identity.Principal{}, err
	}
	return user.Principal(), nil
}

// PrincipalFrom returns the authenticated caller, if any.
func PrincipalFrom(c *fiber.Ctx) (identity.Principal, bool) {
	p, ok := c.Locals(principalKey).(identity.Principal)
	return p, ok
}

// RequireRole rejects callers that do not hold one of roles.
func RequireRole(roles ...identity.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "authentication required")
		}
		for _, role := range roles {
			if p.Role == role {
				return c.Next()
			}
		}
		return fiber.NewError(http.StatusForbidden, "forbidden")
	}
}
