// Package secret seals and opens the mailbox credentials stored per user.
//
// Two formats are accepted by Decrypt:
//
//   - "sb1:" followed by base64(nonce || secretbox), written by Seal.
//   - OpenSSL "Salted__" AES-256-CBC with an MD5 EVP_BytesToKey derived key,
//     which is what browser side CryptoJS.AES.encrypt(text, passphrase)
//     produces. Credentials saved by older clients use this format.
package secret

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	sealedPrefix = "sb1:"
	saltedMagic  = "Salted__"
	nonceSize    = 24
)

var (
	ErrDecryption  = errors.New("failed to decrypt credential")
	ErrEmptySecret = errors.New("empty secret")
)

type Cipher struct {
	passphrase []byte
	key        [32]byte
}

func New(passphrase string) (*Cipher, error) {
	if passphrase == "" {
		return nil, ErrEmptySecret
	}

	c := &Cipher{passphrase: []byte(passphrase)}

	r := hkdf.New(sha256.New, c.passphrase, nil, []byte("codemailer credential v1"))
	if _, err := io.ReadFull(r, c.key[:]); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Cipher) Seal(plainText string) (string, error) {
	if plainText == "" {
		return "", ErrEmptySecret
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}

	out := secretbox.Seal(nonce[:], []byte(plainText), &nonce, &c.key)

	return sealedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

func (c *Cipher) Decrypt(cipherText string) (string, error) {
	cipherText = strings.TrimSpace(cipherText)
	if cipherText == "" {
		return "", fmt.Errorf("%w: %v", ErrDecryption, ErrEmptySecret)
	}

	var (
		plain []byte
		err   error
	)
	if strings.HasPrefix(cipherText, sealedPrefix) {
		plain, err = c.open(strings.TrimPrefix(cipherText, sealedPrefix))
	} else {
		plain, err = c.openSalted(cipherText)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	if len(plain) == 0 || !utf8.Valid(plain) {
		return "", ErrDecryption
	}

	return string(plain), nil
}

func (c *Cipher) open(encoded string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(b) < nonceSize+secretbox.Overhead {
		return nil, errors.New("sealed secret too short")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], b[:nonceSize])

	plain, ok := secretbox.Open(nil, b[nonceSize:], &nonce, &c.key)
	if !ok {
		return nil, errors.New("secretbox open failed")
	}

	return plain, nil
}

func (c *Cipher) openSalted(encoded string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(b) < 16+aes.BlockSize || string(b[:8]) != saltedMagic {
		return nil, errors.New("not an openssl salted ciphertext")
	}

	var (
		salt = b[8:16]
		data = b[16:]
	)
	if len(data)%aes.BlockSize != 0 {
		return nil, errors.New("ciphertext is not a multiple of the block size")
	}

	key, iv := evpBytesToKey(c.passphrase, salt, 32, aes.BlockSize)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	plain := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, data)

	return pkcs7Unpad(plain)
}

// evpBytesToKey is OpenSSL's EVP_BytesToKey with MD5 and a single iteration.
func evpBytesToKey(passphrase, salt []byte, keyLen, ivLen int) ([]byte, []byte) {
	var (
		derived []byte
		prev    []byte
	)
	for len(derived) < keyLen+ivLen {
		h := md5.New()
		h.Write(prev)
		h.Write(passphrase)
		h.Write(salt)
		prev = h.Sum(nil)
		derived = append(derived, prev...)
	}
	return derived[:keyLen], derived[keyLen : keyLen+ivLen]
}

func pkcs7Unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, errors.New("empty plaintext")
	}

	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, errors.New("invalid padding")
	}
	if !bytes.Equal(b[len(b)-n:], bytes.Repeat([]byte{byte(n)}, n)) {
		return nil, errors.New("invalid padding")
	}

	return b[:len(b)-n], nil
}
