package security

import (
	"bytes"
	"crypto/md5"
	"errors"
	"fmt"
	"os"
	"sort"
)

var (
	ErrPasswordTooShort = errors.New("password is too short")
	ErrUnsafePassword   = errors.New("password is on the list of known bad passwords")
)

const md5DigestSize = md5.Size

// PasswordValidator enforces a minimum length and rejects passwords
// found in a leaked-passwords denylist.
type PasswordValidator struct {
	minLength int
	// denylist holds sorted 16 byte MD5 digests back to back.
	denylist []byte
}

// LoadMD5Denylist reads a file of concatenated, sorted MD5 digests.
// The file is a compact index of known-compromised passwords.
func LoadMD5Denylist(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read password denylist: %w", err)
	}
	if len(data)%md5DigestSize != 0 {
		return nil, fmt.Errorf("password denylist has invalid size %d", len(data))
	}
	return data, nil
}

func NewPasswordValidator(minLength int, denylist []byte) *PasswordValidator {
	if minLength <= 0 {
		minLength = 8
	}
	return &PasswordValidator{minLength: minLength, denylist: denylist}
}

// Validate returns nil for acceptable passwords.
func (v *PasswordValidator) Validate(password string) error {
	if len(password) < v.minLength {
		return ErrPasswordTooShort
	}
	if v.isDenied(password) {
		return ErrUnsafePassword
	}
	return nil
}

func (v *PasswordValidator) isDenied(password string) bool {
	if len(v.denylist) == 0 {
		return false
	}

	digest := md5.Sum([]byte(password))
	n := len(v.denylist) / md5DigestSize

	idx := sort.Search(n, func(i int) bool {
		record := v.denylist[i*md5DigestSize : (i+1)*md5DigestSize]
		return bytes.Compare(record, digest[:]) >= 0
	})
	if idx >= n {
		return false
	}
	return bytes.Equal(v.denylist[idx*md5DigestSize:(idx+1)*md5DigestSize], digest[:])
}
