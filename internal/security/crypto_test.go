package security

import (
	"bytes"
	"strings"
	"testing"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestFieldCipherRoundTrip(t *testing.T) {
	c, err := NewFieldCipher(testKey(1))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	for _, plaintext := range []string{"", "a", "jane.doe@uni.edu", strings.Repeat("x", 1000)} {
		token, err := c.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("encrypt %q: %v", plaintext, err)
		}
		got, err := c.Decrypt(token)
		if err != nil {
			t.Fatalf("decrypt %q: %v", token, err)
		}
		if got != plaintext {
			t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
		}
	}
}

func TestFieldCipherNonDeterministic(t *testing.T) {
	c, err := NewFieldCipher(testKey(1))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	a, err := c.Encrypt("same input")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b, err := c.Encrypt("same input")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct ciphertexts for identical plaintexts")
	}
}

func TestFieldCipherRejectsMalformedTokens(t *testing.T) {
	c, err := NewFieldCipher(testKey(1))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	for _, token := range []string{"", "no-separator", ":abcd", "abcd:", "zz:zz", "0011:0011"} {
		if _, err := c.Decrypt(token); err == nil {
			t.Fatalf("expected error for token %q", token)
		}
	}
}

func TestFieldCipherWrongKeyFails(t *testing.T) {
	c1, err := NewFieldCipher(testKey(1))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	c2, err := NewFieldCipher(testKey(2))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	token, err := c1.Encrypt("secret")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if got, err := c2.Decrypt(token); err == nil && got == "secret" {
		t.Fatal("decrypt with wrong key must not recover plaintext")
	}
}

func TestFieldCipherRejectsShortKey(t *testing.T) {
	if _, err := NewFieldCipher([]byte("short")); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestIndexerDeterministic(t *testing.T) {
	idx := NewIndexer([]byte("hmac-key"))
	a := idx.Digest("jane.doe@uni.edu")
	b := idx.Digest("jane.doe@uni.edu")
	if a != b {
		t.Fatalf("digest not deterministic: %q vs %q", a, b)
	}
	if a == idx.Digest("other@uni.edu") {
		t.Fatal("distinct inputs must not collide trivially")
	}
	other := NewIndexer([]byte("different-key"))
	if a == other.Digest("jane.doe@uni.edu") {
		t.Fatal("digest must depend on the key")
	}
}

func TestHashPasswordVerify(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format: %q", hash)
	}
	ok, err := VerifyPassword("correct horse battery staple", hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("expected correct password to verify")
	}
	ok, err = VerifyPassword("wrong password", hash)
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password to fail")
	}
}

func TestVerifyPasswordRejectsGarbageHash(t *testing.T) {
	if _, err := VerifyPassword("pw", "not-a-phc-string"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}
