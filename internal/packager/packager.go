// Package packager turns the serialized aggregate into the encrypted
// artifact the remote service consumes: brotli compression followed by
// AES-256-GCM under a fresh single-use key.
package packager

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"

	"msgwrapped/internal/domain"

	"github.com/andybalholm/brotli"
)

// Compression parameters are part of the remote decompression contract.
const (
	brotliQuality = 11
	brotliWindow  = 22
)

// zeroNonce is the fixed 96-bit IV. Reusing a fixed nonce is safe only
// because every key is generated inside Seal and used for exactly one
// encryption; the remote decryption contract expects this scheme.
var zeroNonce [12]byte

// Key is single-use 256-bit key material. It can only be created by Seal,
// so a key can never encrypt twice. Never persisted, never logged.
type Key struct {
	bytes [32]byte
}

// Bytes returns the raw key material.
func (k *Key) Bytes() []byte { return k.bytes[:] }

// Base64 returns the URL-safe encoding used in the share-link fragment.
func (k *Key) Base64() string { return base64.URLEncoding.EncodeToString(k.bytes[:]) }

// String redacts the key so it cannot leak through formatted logging.
func (k *Key) String() string { return "Key(redacted)" }

// Seal compresses plain at maximum quality, generates a fresh key, and
// encrypts the compressed bytes. The returned ciphertext embeds the 128-bit
// authentication tag and pairs 1:1 with the returned key.
func Seal(plain []byte) (*Key, []byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterOptions(&buf, brotli.WriterOptions{
		Quality: brotliQuality,
		LGWin:   brotliWindow,
	})
	if _, err := w.Write(plain); err != nil {
		return nil, nil, domain.WrapError(domain.KindCrypto, "compress aggregate", err)
	}
	if err := w.Close(); err != nil {
		return nil, nil, domain.WrapError(domain.KindCrypto, "compress aggregate", err)
	}

	key := &Key{}
	if _, err := rand.Read(key.bytes[:]); err != nil {
		return nil, nil, domain.WrapError(domain.KindCrypto, "generate key", err)
	}

	block, err := aes.NewCipher(key.bytes[:])
	if err != nil {
		// Unreachable with a 32-byte key; treat as an invariant violation.
		return nil, nil, domain.WrapError(domain.KindCrypto, "cipher init invariant violation", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, domain.WrapError(domain.KindCrypto, "cipher init invariant violation", err)
	}

	ciphertext := gcm.Seal(nil, zeroNonce[:], buf.Bytes(), nil)
	return key, ciphertext, nil
}
