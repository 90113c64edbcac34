package sm4batch

import (
	"fmt"
	"strings"
	"time"

	apperrors "sm4desk/internal/infrastructure/errors"
	"sm4desk/internal/infrastructure/logging"
)

// Operation selects the direction of a batch run
type Operation string

const (
	OpEncrypt Operation = "encrypt"
	OpDecrypt Operation = "decrypt"
)

// ParseOperation accepts "encrypt" or "decrypt" in any case
func ParseOperation(s string) (Operation, error) {
	switch Operation(strings.ToLower(strings.TrimSpace(s))) {
	case OpEncrypt:
		return OpEncrypt, nil
	case OpDecrypt:
		return OpDecrypt, nil
	default:
		return "", apperrors.NewWithContext("sm4.operation",
			fmt.Errorf("unknown operation %q", s), apperrors.ErrCodeValidation,
			map[string]string{"operation": s})
	}
}

// Service is the batch tool bound to the front-end. Its string methods never
// fail: on error they log a warning and hand the input back unchanged.
type Service struct {
	defaultKey string
	logger     logging.Logger
}

// NewService creates a batch service using defaultKey when callers pass none
func NewService(defaultKey string, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Service{defaultKey: defaultKey, logger: logger}
}

func (s *Service) keyOrDefault(hexKey string) string {
	if strings.TrimSpace(hexKey) == "" {
		return s.defaultKey
	}
	return hexKey
}

func (s *Service) encryptOrKeep(hexKey, in string) string {
	out, err := EncryptECB(hexKey, in)
	if err != nil {
		s.logger.Warn("SM4 encryption failed, keeping input", "error", err.Error())
		return in
	}
	return out
}

func (s *Service) decryptOrKeep(hexKey, in string) string {
	out, err := DecryptECB(hexKey, in)
	if err != nil {
		s.logger.Warn("SM4 decryption failed, keeping input", "error", err.Error())
		return in
	}
	return out
}

// containsCiphertext reports whether any comma-separated part decrypts under the default key
func (s *Service) containsCiphertext(str string) bool {
	for _, part := range strings.Split(str, ",") {
		if _, err := DecryptECB(s.defaultKey, strings.TrimSpace(part)); err == nil {
			return true
		}
	}
	return false
}

// Encrypt encrypts str with the default key. Input that already holds a
// ciphertext, even as one part of a comma list, is returned as is so a value
// is never encrypted twice.
func (s *Service) Encrypt(str string) string {
	if str == "" {
		return ""
	}
	if s.containsCiphertext(str) {
		return str
	}
	return s.encryptOrKeep(s.defaultKey, str)
}

// Decrypt decrypts str with the default key; comma-separated ciphertexts are
// decrypted one by one and re-joined with ",".
func (s *Service) Decrypt(str string) string {
	if str == "" {
		return str
	}

	if strings.Contains(str, ",") {
		parts := strings.Split(str, ",")
		for i, part := range parts {
			parts[i] = s.decryptOrKeep(s.defaultKey, strings.TrimSpace(part))
		}
		return strings.Join(parts, ",")
	}

	return s.decryptOrKeep(s.defaultKey, str)
}

// EncryptWithKey encrypts plainText with a caller-supplied hex key
func (s *Service) EncryptWithKey(hexKey, plainText string) string {
	return s.encryptOrKeep(hexKey, plainText)
}

// DecryptWithKey decrypts cipherText with a caller-supplied hex key
func (s *Service) DecryptWithKey(hexKey, cipherText string) string {
	return s.decryptOrKeep(hexKey, cipherText)
}

// ProcessLines runs op over every line, leaving blank lines untouched and
// lines that fail unchanged. An empty hexKey selects the default key.
func (s *Service) ProcessLines(lines []string, op string, hexKey string) ([]string, error) {
	operation, err := ParseOperation(op)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	key := s.keyOrDefault(hexKey)

	out := make([]string, len(lines))
	for i, line := range lines {
		switch {
		case strings.TrimSpace(line) == "":
			out[i] = line
		case operation == OpEncrypt:
			out[i] = s.encryptOrKeep(key, line)
		default:
			out[i] = s.decryptOrKeep(key, line)
		}
	}

	logging.LogOperation(s.logger, "sm4.process_lines", time.Since(start), map[string]interface{}{
		"mode":  string(operation),
		"lines": len(lines),
	})
	return out, nil
}
