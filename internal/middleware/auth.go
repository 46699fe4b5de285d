package middleware

import (
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"alfredoptarigan/career-coach/internal/config"
	"alfredoptarigan/career-coach/internal/models"
)

const identityKey = "identity"

const (
	LocalUserID      = "local"
	LocalDisplayName = "Local User"
)

// Auth verifies the bearer token issued by the identity provider and stores
// the caller's Identity in the request locals. Without a secret every request
// runs as a single local user.
func Auth(cfg config.AuthConfig) fiber.Handler {
	if cfg.JWTSecret == "" {
		log.Println("⚠️  JWT_SECRET is not set, running in local mode with a single user")
		return func(c *fiber.Ctx) error {
			c.Locals(identityKey, models.Identity{
				SignedIn:    true,
				UserID:      LocalUserID,
				DisplayName: LocalDisplayName,
			})
			return c.Next()
		}
	}

	secret := []byte(cfg.JWTSecret)
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(options...)

	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return unauthorized(c, "Authorization header or auth_token cookie required")
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			log.Printf("⚠️  Token validation failed: %v\n", err)
			return unauthorized(c, "Invalid token")
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			return unauthorized(c, "Invalid claims")
		}
		name, _ := claims["name"].(string)

		c.Locals(identityKey, models.Identity{
			SignedIn:    true,
			UserID:      sub,
			DisplayName: name,
		})
		return c.Next()
	}
}

// CurrentIdentity returns the identity set by Auth, or a signed-out identity.
func CurrentIdentity(c *fiber.Ctx) models.Identity {
	if identity, ok := c.Locals(identityKey).(models.Identity); ok {
		return identity
	}
	return models.Identity{}
}

func bearerToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return c.Cookies("auth_token")
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": message,
		"kind":  "unauthorized",
	})
}
