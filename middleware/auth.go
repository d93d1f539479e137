package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"aiinspire/models"
	"aiinspire/store"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ctxUserID = "userId"
	ctxUser   = "user"

	ctxTokenError = "tokenError"
)

type Claims struct {
	UserID string      `json:"userId"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 access tokens.
type Tokens struct {
	Secret []byte
	TTL    time.Duration
}

func (t Tokens) Issue(u *models.User, now time.Time) (string, error) {
	claims := &Claims{
		UserID: u.ID.Hex(),
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
}

func (t Tokens) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if _, err := primitive.ObjectIDFromHex(claims.UserID); err != nil {
		return nil, errors.New("token has no valid user id")
	}
	return claims, nil
}

var (
	ErrUnknownUser  = errors.New("user does not exist")
	ErrUserDisabled = errors.New("account disabled")
)

// SocketAuthenticator checks a websocket handshake token and reloads the user,
// rejecting deleted and disabled accounts like Authenticate does.
func SocketAuthenticator(tokens Tokens, users store.Users) func(string) (string, error) {
	return func(tokenString string) (string, error) {
		claims, err := tokens.Parse(tokenString)
		if err != nil {
			return "", err
		}
		id, _ := primitive.ObjectIDFromHex(claims.UserID)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		user, err := users.GetUser(ctx, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return "", ErrUnknownUser
		case err != nil:
			return "", fmt.Errorf("load user: %w", err)
		case user.Disabled:
			return "", ErrUserDisabled
		}
		return user.ID.Hex(), nil
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, true
		}
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Authenticate resolves the caller from the bearer token, if any, and reloads
// the user so a disabled account is rejected immediately. Requests without a
// usable token continue anonymously; RequireUser guards protected routes.
func Authenticate(tokens Tokens, users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		tokenString, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := tokens.Parse(tokenString)
		if err != nil {
			c.Set(ctxTokenError, true)
			c.Next()
			return
		}

		id, _ := primitive.ObjectIDFromHex(claims.UserID)
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		user, err := users.GetUser(ctx, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.Set(ctxTokenError, true)
			c.Next()
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			return
		case user.Disabled:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		c.Set(ctxUserID, user.ID.Hex())
		c.Set(ctxUser, user)
		c.Next()
	}
}

func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			msg := "authentication required"
			if c.GetBool(ctxTokenError) {
				msg = "invalid token"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
