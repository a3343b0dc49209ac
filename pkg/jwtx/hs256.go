package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// hs256Signer signs tokens with HMAC-SHA256 using a server-held secret.
// Forging a valid token without the secret is computationally infeasible;
// anyone holding the secret can both sign and verify.
type hs256Signer struct {
	secret []byte
}

func newHS256Signer(secret []byte) (*hs256Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwtx: empty HS256 secret")
	}
	return &hs256Signer{secret: secret}, nil
}

func (s *hs256Signer) Alg() string { return "HS256" }

func (s *hs256Signer) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

type hs256Verifier struct {
	secret []byte
	issuer string
}

func newHS256Verifier(secret []byte, issuer string) (*hs256Verifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwtx: empty HS256 secret")
	}
	return &hs256Verifier{secret: secret, issuer: issuer}, nil
}

// Verify parses and validates the token signature, structure, expiry and
// issuer. Verification is purely computational, there is no store lookup.
func (v *hs256Verifier) Verify(raw string) (Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAlgMismatch
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))

	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return Claims{}, ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Claims{}, ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return Claims{}, ErrNotYetValid
	case err != nil:
		return Claims{}, ErrMalformed
	}

	if !token.Valid {
		return Claims{}, ErrInvalidSig
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}

	return claims, nil
}
