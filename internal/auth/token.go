package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sudo-init-do/tgwork/internal/models"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is what a token says about its bearer.
type Claims struct {
	Email       string
	AccountType models.AccountType
}

// DefaultResetTTL is how long a password reset link stays valid.
const DefaultResetTTL = 30 * time.Minute

const purposeReset = "password_reset"

// Tokens signs and verifies HS256 session and password reset tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	ResetTTL time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now, ResetTTL: DefaultResetTTL}
}

func (t *Tokens) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("token generation failed: %w", err)
	}
	return signed, nil
}

func (t *Tokens) parse(tokenStr string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (t *Tokens) Issue(email string, accountType models.AccountType) (string, error) {
	return t.sign(jwt.MapClaims{
		"email":        email,
		"account_type": string(accountType),
		"exp":          t.now().Add(t.ttl).Unix(),
	})
}

// Parse accepts session tokens only; a reset token is not a login.
func (t *Tokens) Parse(tokenStr string) (*Claims, error) {
	claims, err := t.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if _, scoped := claims["purpose"]; scoped {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return nil, ErrInvalidToken
	}
	accountType, _ := claims["account_type"].(string)
	return &Claims{Email: email, AccountType: models.AccountType(accountType)}, nil
}

// PasswordFingerprint identifies a password hash without revealing it.
// Reset tokens carry it so they stop working once the password changes.
func PasswordFingerprint(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}

// IssueReset signs a token that may only reset the password of email
// while its hash is still passwordHash.
func (t *Tokens) IssueReset(email, passwordHash string) (string, error) {
	return t.sign(jwt.MapClaims{
		"email":   email,
		"purpose": purposeReset,
		"pwd":     PasswordFingerprint(passwordHash),
		"exp":     t.now().Add(t.ResetTTL).Unix(),
	})
}

// ParseReset returns the email and password fingerprint of a reset token.
func (t *Tokens) ParseReset(tokenStr string) (email, fingerprint string, err error) {
	claims, err := t.parse(tokenStr)
	if err != nil {
		return "", "", err
	}
	if purpose, _ := claims["purpose"].(string); purpose != purposeReset {
		return "", "", ErrInvalidToken
	}
	email, _ = claims["email"].(string)
	fingerprint, _ = claims["pwd"].(string)
	if email == "" || fingerprint == "" {
		return "", "", ErrInvalidToken
	}
	return email, fingerprint, nil
}
