//go:generate go run go.uber.org/mock/mockgen -source=token.go -destination=../mocks/mock_auth.go -package=mocks
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	imerrors "im-core/errors"
)

// Identity is the result of a successful credential check: who the
// connection belongs to and which device it is.
type Identity struct {
	UserID   string
	DeviceID string
	Claims   map[string]any
}

// CredentialVerifier turns an opaque token into an Identity or fails.
// The connection state machine maps failures to AUTH_FAILED reasons.
type CredentialVerifier interface {
	Verify(token string) (Identity, error)
}

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256 tokens issued by the identity provider.
type JWTVerifier struct {
	key    []byte
	issuer string
}

func NewJWTVerifier(key []byte, issuer string) *JWTVerifier {
	return &JWTVerifier{key: key, issuer: issuer}
}

// Verify parses and validates the signature and expiration of a JWT
// string and resolves the bound identity. The device id from the token
// wins over whatever the client claims in the AUTH frame.
func (v *JWTVerifier) Verify(tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.key, nil
	}, jwt.WithIssuer(v.issuer))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", imerrors.ErrAuthFailed, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", imerrors.ErrAuthFailed, jwt.ErrSignatureInvalid)
	}

	return Identity{
		UserID:   claims.UserID,
		DeviceID: claims.DeviceID,
		Claims:   map[string]any{"issuer": claims.Issuer},
	}, nil
}

// GenerateToken creates a signed JWT for a specific user and device.
// Used by the identity provider and by tests; the delivery core itself
// only verifies.
func GenerateToken(key []byte, issuer, userID, deviceID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID:   userID,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}
