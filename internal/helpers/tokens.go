package helpers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenManager signs HS256 tokens with the current key and verifies tokens
// signed by the current or any previous key, selected by the kid header.
type TokenManager struct {
	keyID  string
	secret []byte
	jwks   *keyfunc.JWKS
}

type octKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	K   string `json:"k"`
}

func NewTokenManager(keyID, secret string, previous map[string]string) (*TokenManager, error) {
	if keyID == "" || secret == "" {
		return nil, errors.New("token signing key id and secret are required")
	}

	keys := []octKey{newOctKey(keyID, secret)}
	kids := make([]string, 0, len(previous))
	for kid := range previous {
		kids = append(kids, kid)
	}
	sort.Strings(kids)
	for _, kid := range kids {
		if kid == keyID {
			return nil, fmt.Errorf("previous key id %q collides with the current key", kid)
		}
		keys = append(keys, newOctKey(kid, previous[kid]))
	}

	raw, err := json.Marshal(map[string][]octKey{"keys": keys})
	if err != nil {
		return nil, fmt.Errorf("failed to encode key set: %v", err)
	}
	jwks, err := keyfunc.NewJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to build key set: %v", err)
	}

	return &TokenManager{keyID: keyID, secret: []byte(secret), jwks: jwks}, nil
}

func newOctKey(kid, secret string) octKey {
	return octKey{
		Kty: "oct",
		Kid: kid,
		Alg: jwt.SigningMethodHS256.Alg(),
		K:   base64.RawURLEncoding.EncodeToString([]byte(secret)),
	}
}

// Issue signs claims for audience. A zero ttl issues a token without expiry.
func (tm *TokenManager) Issue(claims jwt.Claims, audience string, ttl time.Duration) (string, error) {
	registered, err := registeredOf(claims)
	if err != nil {
		return "", err
	}
	now := time.Now()
	registered.Audience = jwt.ClaimStrings{audience}
	registered.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		registered.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = tm.keyID
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}
	return signed, nil
}

// Verify parses tokenStr into claims. It returns ErrTokenExpired for a well-signed
// token past its expiry and ErrTokenInvalid for anything else.
func (tm *TokenManager) Verify(tokenStr, audience string, claims jwt.Claims) error {
	if tokenStr == "" {
		return ErrTokenInvalid
	}
	token, err := jwt.ParseWithClaims(tokenStr, claims, tm.jwks.Keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}

func registeredOf(claims jwt.Claims) (*jwt.RegisteredClaims, error) {
	switch c := claims.(type) {
	case *SessionClaims:
		return &c.RegisteredClaims, nil
	case *MailClaims:
		return &c.RegisteredClaims, nil
	default:
		return nil, fmt.Errorf("unsupported claims type %T", claims)
	}
}
