// Package auth issues and validates signed access tokens and evaluates
// role requirements against their claims.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the access token payload: the registered claims plus the
// username and role of the subject.
type Claims struct {
	jwt.RegisteredClaims
	Name string      `json:"name"`
	Role models.Role `json:"role"`
}

// Issuer mints and verifies HS256 access tokens. The signing key is supplied
// at construction and never read from global state.
type Issuer struct {
	key      []byte
	issuer   string
	audience string
	validity time.Duration
	now      func() time.Time

	parser     *jwt.Parser
	sigChecker *jwt.Parser
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer validates its inputs and returns a ready Issuer.
func NewIssuer(key []byte, issuer, audience string, validity time.Duration, opts ...IssuerOption) (*Issuer, error) {
	switch {
	case len(key) == 0:
		return nil, errors.New("auth: empty signing key")
	case issuer == "":
		return nil, errors.New("auth: empty issuer")
	case audience == "":
		return nil, errors.New("auth: empty audience")
	case validity <= 0:
		return nil, errors.New("auth: access token validity must be positive")
	}

	i := &Issuer{
		key:      append([]byte(nil), key...),
		issuer:   issuer,
		audience: audience,
		validity: validity,
		now:      time.Now,
	}
	for _, o := range opts {
		o(i)
	}

	methods := jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})
	i.parser = jwt.NewParser(
		methods,
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	)
	i.sigChecker = jwt.NewParser(methods, jwt.WithoutClaimsValidation())

	return i, nil
}

// Validity is the fixed access token lifetime.
func (i *Issuer) Validity() time.Duration { return i.validity }

// IssueAccessToken signs a token for the given subject. It returns the token
// and its expiry.
func (i *Issuer) IssueAccessToken(userID, username string, role models.Role) (string, time.Time, error) {
	if userID == "" || !role.Valid() {
		return "", time.Time{}, errors.New("auth: refusing to sign token without subject or role")
	}

	issuedAt := i.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(i.validity)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name: username,
		Role: role,
	})

	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate checks signature, issuer, audience and that the current time is
// within [iat, exp). Every failure is reported as common.ErrInvalidToken.
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := i.parser.ParseWithClaims(tokenString, claims, i.keyFunc)
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}
	if claims.Subject == "" || claims.IssuedAt == nil || !claims.Role.Valid() {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// Subject returns the subject of a token signed by this issuer for this
// audience, ignoring its lifetime. It lets a refresh request be tied to the
// access token it replaces, which has usually expired by then.
func (i *Issuer) Subject(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := i.sigChecker.ParseWithClaims(tokenString, claims, i.keyFunc)
	if err != nil || !token.Valid {
		return "", common.ErrInvalidToken
	}
	if claims.Issuer != i.issuer || !hasAudience(claims.Audience, i.audience) || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}
	return claims.Subject, nil
}

func (i *Issuer) keyFunc(*jwt.Token) (any, error) {
	return i.key, nil
}

func hasAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
