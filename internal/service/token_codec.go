package service

import (
	"encoding/base64"
	"encoding/json"

	"github.com/classtrack/attendance-service/internal/security"
)

// qrPayload is the full plaintext content of a scanned QR token. The
// payload is deliberately minimal: a session id and nothing else, so the
// token leaks no geolocation or expiry metadata to anyone without the
// server's key.
type qrPayload struct {
	ID string `json:"id"`
}

// TokenCodec produces and consumes the opaque QR token: JSON payload,
// base64-encoded, then field-encrypted.
type TokenCodec struct {
	cipher *security.FieldCipher
}

func NewTokenCodec(cipher *security.FieldCipher) *TokenCodec {
	return &TokenCodec{cipher: cipher}
}

func (c *TokenCodec) Encode(sessionID string) (string, error) {
	raw, err := json.Marshal(qrPayload{ID: sessionID})
	if err != nil {
		return "", err
	}
	return c.cipher.Encrypt(base64.StdEncoding.EncodeToString(raw))
}

// Decode recovers the session id. Every decode failure collapses to
// ErrInvalidToken: a scanner learns nothing about which stage rejected
// the token.
func (c *TokenCodec) Decode(token string) (string, error) {
	encoded, err := c.cipher.Decrypt(token)
	if err != nil {
		return "", ErrInvalidToken
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidToken
	}
	var payload qrPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", ErrInvalidToken
	}
	if payload.ID == "" {
		return "", ErrInvalidToken
	}
	return payload.ID, nil
}
