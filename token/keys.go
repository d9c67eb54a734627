package token

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// KeyPair is a signing key together with the JWT method it signs with.
type KeyPair struct {
	ID      string
	Private crypto.Signer
	Method  jwt.SigningMethod
}

// JWKS is the document served at the JWKS endpoint.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK is the public half of a KeyPair.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`

	// RSA
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`

	// EC
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// GenerateRSAKeyPair creates an RS256 key. Sizes below 2048 bits are raised
// to 2048.
func GenerateRSAKeyPair(id string, bits int) (*KeyPair, error) {
	bits = max(bits, 2048)
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate RSA key")
	}
	return &KeyPair{ID: id, Private: key, Method: jwt.SigningMethodRS256}, nil
}

// GenerateECDSAKeyPair creates an ES256 key on P-256.
func GenerateECDSAKeyPair(id string) (*KeyPair, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate ECDSA key")
	}
	return &KeyPair{ID: id, Private: key, Method: jwt.SigningMethodES256}, nil
}

// JWK describes the public key for verifiers such as go-oidc.
func (kp *KeyPair) JWK() (*JWK, error) {
	jwk := &JWK{Kid: kp.ID, Use: "sig", Alg: kp.Method.Alg()}
	enc := base64.RawURLEncoding

	switch pub := kp.Private.Public().(type) {
	case *rsa.PublicKey:
		jwk.Kty = "RSA"
		jwk.N = enc.EncodeToString(pub.N.Bytes())
		jwk.E = enc.EncodeToString(big.NewInt(int64(pub.E)).Bytes())
	case *ecdsa.PublicKey:
		// Coordinates are fixed width, left padded with zeros
		size := (pub.Curve.Params().BitSize + 7) / 8
		jwk.Kty = "EC"
		jwk.Crv = pub.Curve.Params().Name
		jwk.X = enc.EncodeToString(pub.X.FillBytes(make([]byte, size)))
		jwk.Y = enc.EncodeToString(pub.Y.FillBytes(make([]byte, size)))
	default:
		return nil, errors.Errorf("unsupported public key type %T", pub)
	}
	return jwk, nil
}
