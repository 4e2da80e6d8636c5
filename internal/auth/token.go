// Package auth issues and verifies session tokens and owns the static
// role to permission table.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session modes
const (
	ModeDrawer   = "drawer"
	ModeViewOnly = "view_only"
)

const tokenTTL = 12 * time.Hour

// Claims is the payload of a session token.
type Claims struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Mode    string `json:"mode"`
	ShiftID string `json:"shift_id,omitempty"`
	jwt.RegisteredClaims
}

// StaffID is the subject claim.
func (c *Claims) StaffID() string {
	return c.Subject
}

// ViewOnly reports whether the session may not touch the drawer.
func (c *Claims) ViewOnly() bool {
	return c.Mode == ModeViewOnly
}

type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewTokenIssuer(secret []byte) *TokenIssuer {
	return &TokenIssuer{secret: secret, now: time.Now}
}

// Issue signs a HS256 token for the given session.
func (t *TokenIssuer) Issue(staffID, name, role, mode, shiftID string) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(tokenTTL)
	claims := Claims{
		Name:    name,
		Role:    role,
		Mode:    mode,
		ShiftID: shiftID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staffID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature and expiry and returns the claims.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Role == "" {
		return nil, errors.New("role not found in token")
	}
	return claims, nil
}
