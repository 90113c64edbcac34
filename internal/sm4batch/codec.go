package sm4batch

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	smcipher "github.com/emmansun/gmsm/cipher"
	"github.com/emmansun/gmsm/padding"
	"github.com/emmansun/gmsm/sm4"

	apperrors "sm4desk/internal/infrastructure/errors"
)

// KeySize is the SM4 key length in bytes (32 hex characters)
const KeySize = 16

func parseKey(op, hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, apperrors.New(op, fmt.Errorf("key is not valid hex: %w", err), apperrors.ErrCodeValidation)
	}
	if len(key) != KeySize {
		return nil, apperrors.New(op,
			fmt.Errorf("key must be %d bytes (%d hex characters), got %d bytes", KeySize, KeySize*2, len(key)),
			apperrors.ErrCodeValidation)
	}
	return key, nil
}

// EncryptECB encrypts plainText with SM4-ECB and PKCS#7 padding and returns
// lowercase hex. Empty input is returned unchanged.
func EncryptECB(hexKey, plainText string) (string, error) {
	if plainText == "" {
		return plainText, nil
	}

	key, err := parseKey("sm4.encrypt", hexKey)
	if err != nil {
		return "", err
	}

	block, err := sm4.NewCipher(key)
	if err != nil {
		return "", apperrors.New("sm4.encrypt", err, apperrors.ErrCodeInternal)
	}

	padded := padding.NewPKCS7Padding(sm4.BlockSize).Pad([]byte(plainText))
	out := make([]byte, len(padded))
	smcipher.NewECBEncrypter(block).CryptBlocks(out, padded)

	return hex.EncodeToString(out), nil
}

// DecryptECB reverses EncryptECB. The ciphertext must be hex whose byte length
// is a multiple of the block size, and the plaintext must be valid UTF-8.
func DecryptECB(hexKey, cipherText string) (string, error) {
	if cipherText == "" {
		return cipherText, nil
	}

	key, err := parseKey("sm4.decrypt", hexKey)
	if err != nil {
		return "", err
	}

	in, err := hex.DecodeString(strings.TrimSpace(cipherText))
	if err != nil {
		return "", apperrors.New("sm4.decrypt", fmt.Errorf("ciphertext is not valid hex: %w", err), apperrors.ErrCodeValidation)
	}
	if len(in) == 0 || len(in)%sm4.BlockSize != 0 {
		return "", apperrors.New("sm4.decrypt",
			fmt.Errorf("ciphertext length must be a multiple of %d bytes, got %d", sm4.BlockSize, len(in)),
			apperrors.ErrCodeValidation)
	}

	block, err := sm4.NewCipher(key)
	if err != nil {
		return "", apperrors.New("sm4.decrypt", err, apperrors.ErrCodeInternal)
	}

	out := make([]byte, len(in))
	smcipher.NewECBDecrypter(block).CryptBlocks(out, in)

	plain, err := padding.NewPKCS7Padding(sm4.BlockSize).Unpad(out)
	if err != nil {
		return "", apperrors.New("sm4.decrypt", fmt.Errorf("bad padding: %w", err), apperrors.ErrCodeValidation)
	}
	if !utf8.Valid(plain) {
		return "", apperrors.New("sm4.decrypt", fmt.Errorf("plaintext is not valid UTF-8"), apperrors.ErrCodeValidation)
	}

	return string(plain), nil
}
