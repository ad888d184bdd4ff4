package auth

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// totpSkew is the accepted clock drift in 30-second steps on either side.
const totpSkew = 2

// TOTPManager generates enrollment secrets and verifies time-based codes.
type TOTPManager struct {
	issuer string
}

// NewTOTPManager builds a manager with the configured issuer name.
func NewTOTPManager(issuer string) *TOTPManager {
	return &TOTPManager{issuer: issuer}
}

// GenerateSecret creates a new base32 secret and its otpauth provisioning URL
// for the given account identifier.
func (m *TOTPManager) GenerateSecret(account string) (secret, url string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      m.issuer,
		AccountName: account,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// Verify checks a code against the secret at the given time, tolerating
// drift of up to totpSkew steps either side.
func (m *TOTPManager) Verify(secret, code string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    30,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
