package server

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"newsdesk/internal/middleware"
	"newsdesk/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// authCookieName carries the bearer token for browser form posts, which cannot set headers.
const authCookieName = "access_token"

var errNoToken = errors.New("no token presented")

// identity is the verified caller behind a token.
type identity struct {
	UserID   uint
	Username string
	JTI      string
}

func (s *Server) tokenFromRequest(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Cookies(authCookieName)
}

// verifyToken validates signature, issuer, audience and expiry and extracts the subject.
func (s *Server) verifyToken(c *fiber.Ctx) (*identity, error) {
	tokenString := s.tokenFromRequest(c)
	if tokenString == "" {
		return nil, errNoToken
	}

	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if s.config.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.JWTIssuer))
	}
	if s.config.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(s.config.JWTAudience))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, models.NewUnauthorizedError("Invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthorizedError("Invalid user ID in token")
	}

	id := &identity{UserID: uint(userID)}
	if name, ok := claims["username"].(string); ok {
		id.Username = name
	} else if name, ok := claims["preferred_username"].(string); ok {
		id.Username = name
	}
	if jti, ok := claims["jti"].(string); ok {
		id.JTI = jti
	}

	// Check JTI for revocation
	if id.JTI != "" && s.redis != nil {
		revoked, err := s.redis.Exists(c.UserContext(), "blacklist:"+id.JTI).Result()
		if err == nil && revoked > 0 {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}
	return id, nil
}

// establish mirrors the user locally, resolves capabilities and stores both on the request.
func (s *Server) establish(c *fiber.Ctx, id *identity) error {
	ctx := c.UserContext()
	user, err := s.userService.EnsureUser(ctx, id.UserID, id.Username)
	if err != nil {
		return err
	}
	c.Locals("userID", user.ID)
	c.Locals("isAdmin", user.IsAdmin)
	c.SetUserContext(middleware.WithUserID(ctx, user.ID))
	return nil
}

// AuthRequired returns the authentication middleware. HTML clients without a
// valid identity are redirected to the login page instead of receiving 401.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.verifyToken(c)
		if err != nil {
			if errors.Is(err, errNoToken) {
				err = models.NewUnauthorizedError("Authorization required")
			}
			return s.unauthorized(c, err)
		}
		if err := s.establish(c, id); err != nil {
			return s.respondError(c, err)
		}
		return c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a valid token is presented
// and otherwise lets the request through anonymously.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.verifyToken(c)
		if err != nil {
			return c.Next()
		}
		if err := s.establish(c, id); err != nil {
			return s.respondError(c, err)
		}
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that identity is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, caps := callerOf(c); !caps.IsAdmin {
			return s.respondError(c, models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// callerOf returns the authenticated user id (0 when anonymous) and capabilities.
func callerOf(c *fiber.Ctx) (uint, models.Capabilities) {
	userID, _ := c.Locals("userID").(uint)
	isAdmin, _ := c.Locals("isAdmin").(bool)
	return userID, models.Capabilities{IsAdmin: isAdmin}
}

func (s *Server) unauthorized(c *fiber.Ctx, err error) error {
	if wantsHTML(c) {
		return c.Redirect(s.loginURL(c), fiber.StatusSeeOther)
	}
	return models.RespondWithError(c, fiber.StatusUnauthorized, err)
}

func (s *Server) loginURL(c *fiber.Ctx) string {
	login := s.config.LoginURL
	if login == "" {
		login = "/login"
	}
	sep := "?"
	if strings.Contains(login, "?") {
		sep = "&"
	}
	return login + sep + "next=" + url.QueryEscape(c.OriginalURL())
}
