package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/user"
)

const contextTokenKey = "userToken"

var nowFunc = time.Now // mockable

// Claims represents the authorization claims transmitted via a JWT.
// The subject is the user's email.
type Claims struct {
	jwt.StandardClaims
	UserID int       `json:"user_id"`
	Email  string    `json:"email"`
	Role   user.Role `json:"role"`
}

// Tokenizer issues and verifies session tokens. Tokens expire after the configured delta and cannot be refreshed.
type Tokenizer struct {
	key    []byte
	ttl    time.Duration
	issuer string
}

func NewTokenizer(conf *core.Config) *Tokenizer {
	return &Tokenizer{
		key:    []byte(conf.SecretKey),
		ttl:    conf.Server.JWTExpirationDelta,
		issuer: conf.AppName,
	}
}

func (tk *Tokenizer) GetUserClaims(usr user.User) *Claims {
	now := nowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    tk.issuer,
			Subject:   usr.Email,
			ExpiresAt: now.Add(tk.ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		UserID: usr.ID,
		Email:  usr.Email,
		Role:   usr.Role,
	}
}

// GenerateToken generates a signed JWT token string for the user.
func (tk *Tokenizer) GenerateToken(usr user.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tk.GetUserClaims(usr))
	ss, err := token.SignedString(tk.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (tk *Tokenizer) middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    tk.key,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	})
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// claimsUser is the user the claims were issued for, as far as the token tells.
func claimsUser(claims Claims) user.User {
	return user.User{ID: claims.UserID, Email: claims.Email, Role: claims.Role}
}
