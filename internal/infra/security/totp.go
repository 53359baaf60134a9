package security

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"time"
)

// TOTP parameters per RFC 6238: SHA-1, 30 second steps, 6 digits.
// These match what the common authenticator apps assume when the
// provisioning URL omits overrides.
const (
	totpPeriod = 30 * time.Second
	totpDigits = 6
)

var base32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

// TOTPCode computes the code for the step containing t.
func TOTPCode(key []byte, t time.Time) string {
	counter := uint64(t.Unix()) / uint64(totpPeriod/time.Second)

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%06d", value%1000000)
}

// ValidateTOTP checks the supplied code against the current step and,
// when allowPrevious is set, the step before it. The extra step covers
// clock drift and codes typed right at a boundary.
func ValidateTOTP(key []byte, code string, t time.Time, allowPrevious bool) bool {
	if len(key) == 0 || len(code) != totpDigits {
		return false
	}
	if hmac.Equal([]byte(TOTPCode(key, t)), []byte(code)) {
		return true
	}
	if allowPrevious {
		return hmac.Equal([]byte(TOTPCode(key, t.Add(-totpPeriod))), []byte(code))
	}
	return false
}

// TOTPProvisioningURL renders the otpauth URL encoded into the QR code
// shown during enrollment.
func TOTPProvisioningURL(issuer, username string, key []byte) string {
	secret := base32NoPadding.EncodeToString(key)
	label := url.PathEscape(fmt.Sprintf("%s: %s", issuer, username))
	return fmt.Sprintf("otpauth://totp/%s?secret=%s&issuer=%s",
		label, secret, url.QueryEscape(issuer))
}
