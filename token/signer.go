package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer signs the tokens the provider hands out and verifies the ones
// presented back to it.
type Signer interface {
	Sign(claims jwt.Claims) (string, error)

	// Parse verifies raw and decodes it into claims. Only tokens signed with
	// the signer's own algorithm are accepted.
	Parse(raw string, claims jwt.Claims, opts ...jwt.ParserOption) error

	Algorithm() string

	// KeySet is what the JWKS endpoint publishes. A shared secret publishes
	// no keys.
	KeySet() (*JWKS, error)
}

type secretSigner struct {
	secret []byte
}

// NewHMACSigner signs with HS256 using a shared secret.
func NewHMACSigner(secret string) Signer {
	return &secretSigner{secret: []byte(secret)}
}

func (s *secretSigner) Sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with shared secret")
	}
	return signed, nil
}

func (s *secretSigner) Parse(raw string, claims jwt.Claims, opts ...jwt.ParserOption) error {
	return parse(raw, claims, s.Algorithm(), s.secret, opts)
}

func (s *secretSigner) Algorithm() string {
	return jwt.SigningMethodHS256.Alg()
}

func (s *secretSigner) KeySet() (*JWKS, error) {
	return &JWKS{Keys: []JWK{}}, nil
}

type keyPairSigner struct {
	key *KeyPair
}

// NewKeyPairSigner signs with the private half of key and publishes the
// public half.
func NewKeyPairSigner(key *KeyPair) Signer {
	return &keyPairSigner{key: key}
}

func (s *keyPairSigner) Sign(claims jwt.Claims) (string, error) {
	tok := jwt.NewWithClaims(s.key.Method, claims)
	tok.Header["kid"] = s.key.ID

	signed, err := tok.SignedString(s.key.Private)
	if err != nil {
		return "", errors.Wrapf(err, "failed to sign token with key %s", s.key.ID)
	}
	return signed, nil
}

func (s *keyPairSigner) Parse(raw string, claims jwt.Claims, opts ...jwt.ParserOption) error {
	return parse(raw, claims, s.Algorithm(), s.key.Private.Public(), opts)
}

func (s *keyPairSigner) Algorithm() string {
	return s.key.Method.Alg()
}

func (s *keyPairSigner) KeySet() (*JWKS, error) {
	jwk, err := s.key.JWK()
	if err != nil {
		return nil, errors.Wrap(err, "failed to publish key")
	}
	return &JWKS{Keys: []JWK{*jwk}}, nil
}

func parse(raw string, claims jwt.Claims, alg string, key any, opts []jwt.ParserOption) error {
	opts = append([]jwt.ParserOption{jwt.WithValidMethods([]string{alg})}, opts...)
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, opts...)
	return err
}
