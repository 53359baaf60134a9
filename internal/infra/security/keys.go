package security

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	totpKeyLength = 32

	recoveryKeyCount     = 10
	recoveryKeyGroups    = 4
	recoveryKeyGroupSize = 4
	// No "l" to avoid confusion with "1".
	recoveryKeyCharset = "abcdefghijkmnopqrstuvwxyz0123456789"
)

// GeneratePIN returns a nonzero activation PIN with at most 6 digits.
func GeneratePIN() (int, error) {
	for {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("generate pin: %w", err)
		}
		pin := int(binary.BigEndian.Uint64(buf[:]) % 1000000)
		if pin != 0 {
			return pin, nil
		}
	}
}

// GenerateTOTPKey returns a fresh random TOTP shared secret.
func GenerateTOTPKey() ([]byte, error) {
	key := make([]byte, totpKeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate totp key: %w", err)
	}
	return key, nil
}

// GenerateRecoveryKeys returns single-use account recovery keys of the
// form xxxx-xxxx-xxxx-xxxx.
func GenerateRecoveryKeys() ([]string, error) {
	keys := make([]string, 0, recoveryKeyCount)
	for i := 0; i < recoveryKeyCount; i++ {
		groups := make([]string, 0, recoveryKeyGroups)
		for g := 0; g < recoveryKeyGroups; g++ {
			group, err := randomString(recoveryKeyGroupSize, recoveryKeyCharset)
			if err != nil {
				return nil, err
			}
			groups = append(groups, group)
		}
		keys = append(keys, strings.Join(groups, "-"))
	}
	return keys, nil
}

func randomString(length int, charset string) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random string: %w", err)
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = charset[int(b)%len(charset)]
	}
	return string(out), nil
}
