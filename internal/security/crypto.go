package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedToken    = errors.New("malformed encrypted token")
	ErrDecryptionFailure = errors.New("decryption failed")
)

// FieldCipher encrypts individual PII fields with AES-256-CBC. Every call
// to Encrypt draws a fresh random IV, so ciphertexts for equal plaintexts
// differ; equality lookups must go through Indexer digests instead.
type FieldCipher struct {
	key []byte
}

func NewFieldCipher(key []byte) (*FieldCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("field cipher key must be 32 bytes, got %d", len(key))
	}
	return &FieldCipher{key: key}, nil
}

// Encrypt returns "ivHex:cipherHex".
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ct), nil
}

func (c *FieldCipher) Decrypt(token string) (string, error) {
	ivHex, ctHex, ok := strings.Cut(token, ":")
	if !ok || ivHex == "" || ctHex == "" {
		return "", ErrMalformedToken
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrMalformedToken
	}
	ct, err := hex.DecodeString(ctHex)
	if err != nil || len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", ErrMalformedToken
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)
	unpadded, err := pkcs7Unpad(pt, aes.BlockSize)
	if err != nil {
		return "", ErrDecryptionFailure
	}
	return string(unpadded), nil
}

// Indexer produces deterministic keyed digests used as searchable proxies
// for encrypted columns.
type Indexer struct {
	key []byte
}

func NewIndexer(key []byte) *Indexer {
	return &Indexer{key: key}
}

func (i *Indexer) Digest(value string) string {
	mac := hmac.New(sha256.New, i.key)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	padded := make([]byte, len(b)+n)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, errors.New("invalid padding")
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return b[:len(b)-n], nil
}
