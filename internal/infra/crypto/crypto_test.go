package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestEncryptor_EncryptDecrypt(t *testing.T) {
	enc, err := NewEncryptor(testKey())
	if err != nil {
		t.Fatalf("NewEncryptor failed: %v", err)
	}

	plaintext := []byte("title: Wire the board\nlistPosition: 3\n")

	ciphertext, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if bytes.Contains(ciphertext, []byte("Wire the board")) {
		t.Error("ciphertext leaks plaintext")
	}

	decrypted, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("Decrypted text mismatch: got %q, want %q", decrypted, plaintext)
	}
}

func TestEncryptor_Deterministic(t *testing.T) {
	enc, _ := NewEncryptor(testKey())
	other, _ := NewEncryptor(testKey())

	a, _ := enc.Encrypt([]byte("same"))
	b, _ := other.Encrypt([]byte("same"))
	c, _ := enc.Encrypt([]byte("different"))

	if !bytes.Equal(a, b) {
		t.Error("equal plaintexts should encrypt to equal blobs")
	}
	if bytes.Equal(a[:NonceSize], c[:NonceSize]) {
		t.Error("different plaintexts should use different nonces")
	}
}

func TestEncryptor_WrongKey(t *testing.T) {
	enc, _ := NewEncryptor(testKey())
	wrong := testKey()
	wrong[0] ^= 0xff
	dec, _ := NewEncryptor(wrong)

	ciphertext, _ := enc.Encrypt([]byte("secret"))
	if _, err := dec.Decrypt(ciphertext); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt with wrong key: err = %v, want ErrDecryptionFailed", err)
	}
}

func TestEncryptor_ShortCiphertext(t *testing.T) {
	enc, _ := NewEncryptor(testKey())
	if _, err := enc.Decrypt([]byte("short")); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("err = %v, want ErrCiphertextTooShort", err)
	}
}

func TestNewEncryptor_InvalidKey(t *testing.T) {
	if _, err := NewEncryptor([]byte("too short")); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("err = %v, want ErrInvalidKey", err)
	}
}

func TestParseKey(t *testing.T) {
	hexKey := hex.EncodeToString(testKey())
	key, err := ParseKey(hexKey, "kanban")
	if err != nil {
		t.Fatalf("ParseKey(hex) error = %v", err)
	}
	if !bytes.Equal(key, testKey()) {
		t.Error("hex key should be used verbatim")
	}

	p1, err := ParseKey("correct horse", "kanban")
	if err != nil {
		t.Fatalf("ParseKey(passphrase) error = %v", err)
	}
	p2, _ := ParseKey("correct horse", "kanban")
	p3, _ := ParseKey("correct horse", "other")
	if len(p1) != KeySize {
		t.Errorf("derived key size = %d, want %d", len(p1), KeySize)
	}
	if !bytes.Equal(p1, p2) {
		t.Error("derivation should be deterministic")
	}
	if bytes.Equal(p1, p3) {
		t.Error("salt should change the derived key")
	}

	if _, err := ParseKey("", "kanban"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("empty secret: err = %v, want ErrInvalidKey", err)
	}
}
