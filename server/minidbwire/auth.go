package minidbwire

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrAuthRequired = errors.New("minidbwire: authentication required")
	ErrTokenExpired = errors.New("minidbwire: token expired")
	ErrNoSecret     = errors.New("minidbwire: auth enabled without jwt secret")
)

// AuthConfig configures server authentication with HS256/384/512 JWTs.
type AuthConfig struct {
	Enabled   bool
	JWTSecret string
	// Issuer and Audience are checked when set.
	Issuer   string
	Audience string
}

// Identity is who a token was issued to.
type Identity struct {
	Name  string
	Email string
}

func (i Identity) String() string {
	switch {
	case i.Email == "":
		return i.Name
	case i.Name == "":
		return i.Email
	}
	return fmt.Sprintf("%s <%s>", i.Name, i.Email)
}

type Authenticator struct {
	cfg AuthConfig
}

func NewAuthenticator(cfg AuthConfig) (*Authenticator, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrNoSecret
	}
	return &Authenticator{cfg: cfg}, nil
}

// Validate checks the signature and claims of a token. The zero time means
// the token does not expire.
func (a *Authenticator) Validate(tokenString string) (Identity, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return Identity{}, time.Time{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, time.Time{}, errors.New("invalid token claims")
	}

	if a.cfg.Issuer != "" {
		issuer, _ := claims.GetIssuer()
		if issuer != a.cfg.Issuer {
			return Identity{}, time.Time{}, fmt.Errorf("invalid issuer: expected %s, got %s", a.cfg.Issuer, issuer)
		}
	}
	if a.cfg.Audience != "" {
		audiences, _ := claims.GetAudience()
		if !slices.Contains(audiences, a.cfg.Audience) {
			return Identity{}, time.Time{}, fmt.Errorf("invalid audience: expected %s", a.cfg.Audience)
		}
	}

	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)
	if name == "" {
		name, _ = claims.GetSubject()
	}
	if name == "" && email == "" {
		return Identity{}, time.Time{}, errors.New("token missing identity claims (name, email or sub)")
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	return Identity{Name: name, Email: email}, expiresAt, nil
}

// connAuth tracks the authentication state of one connection.
type connAuth struct {
	identity  Identity
	expiresAt time.Time
	ok        bool
}

func (c *connAuth) check(now time.Time) error {
	if !c.ok {
		return ErrAuthRequired
	}
	if !c.expiresAt.IsZero() && now.After(c.expiresAt) {
		return ErrTokenExpired
	}
	return nil
}
