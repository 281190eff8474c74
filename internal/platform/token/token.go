package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken は検証に失敗したトークンに対して返却されます。
var ErrInvalidToken = errors.New("token: invalid token")

// Claims は検証済みトークンから取り出した情報です。
type Claims struct {
	AccountID string
	Role      string
}

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Issuer は HS256 署名のアクセストークンを発行・検証します。
type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  Clock
}

// NewIssuer は Issuer を生成します。
func NewIssuer(secret string, ttl time.Duration, clock Clock) *Issuer {
	if clock == nil {
		clock = realClock{}
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, clock: clock}
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue はアカウント ID を subject とするトークンを発行します。
func (i *Issuer) Issue(accountID, role string) (string, error) {
	now := i.clock.Now()
	claims := accessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し Claims を返します。
// 期限切れ・改ざん・署名方式不一致はすべて ErrInvalidToken に丸められます。
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	var claims accessClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.clock.Now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{AccountID: claims.Subject, Role: claims.Role}, nil
}
