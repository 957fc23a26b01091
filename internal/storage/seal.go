package storage

import (
    "bytes"
    "crypto/aes"
    "crypto/cipher"
    "crypto/rand"
    "crypto/sha256"
    "errors"
    "fmt"
    "io"

    "golang.org/x/crypto/pbkdf2"
)

const (
    sealMagic  = "MSA1"
    saltSize   = 16
    nonceSize  = 12
    tagSize    = 16
    pbkdf2Iter = 100000
    keySize    = 32
)

var ErrNotSealed = errors.New("data is not sealed")

func deriveKey(passphrase string, salt []byte) []byte {
    return pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iter, keySize, sha256.New)
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
    block, err := aes.NewCipher(deriveKey(passphrase, salt))
    if err != nil { return nil, fmt.Errorf("failed to create cipher: %w", err) }
    gcm, err := cipher.NewGCM(block)
    if err != nil { return nil, fmt.Errorf("failed to create GCM: %w", err) }
    return gcm, nil
}

// Seal encrypts data with AES-256-GCM.
// Format: magic(4) + salt(16) + nonce(12) + ciphertext + tag(16)
func Seal(data []byte, passphrase string) ([]byte, error) {
    salt := make([]byte, saltSize)
    nonce := make([]byte, nonceSize)
    if _, err := io.ReadFull(rand.Reader, salt); err != nil {
        return nil, fmt.Errorf("failed to generate salt: %w", err)
    }
    if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
        return nil, fmt.Errorf("failed to generate nonce: %w", err)
    }
    gcm, err := newGCM(passphrase, salt)
    if err != nil { return nil, err }

    out := make([]byte, 0, len(sealMagic)+saltSize+nonceSize+len(data)+tagSize)
    out = append(out, sealMagic...)
    out = append(out, salt...)
    out = append(out, nonce...)
    return gcm.Seal(out, nonce, data, nil), nil
}

// Open reverses Seal.
func Open(sealed []byte, passphrase string) ([]byte, error) {
    if !bytes.HasPrefix(sealed, []byte(sealMagic)) { return nil, ErrNotSealed }
    if len(sealed) < len(sealMagic)+saltSize+nonceSize+tagSize {
        return nil, fmt.Errorf("sealed data too short: %d bytes", len(sealed))
    }
    rest := sealed[len(sealMagic):]
    salt := rest[:saltSize]
    nonce := rest[saltSize : saltSize+nonceSize]
    gcm, err := newGCM(passphrase, salt)
    if err != nil { return nil, err }
    plain, err := gcm.Open(nil, nonce, rest[saltSize+nonceSize:], nil)
    if err != nil { return nil, fmt.Errorf("GCM decryption failed: %w", err) }
    return plain, nil
}
