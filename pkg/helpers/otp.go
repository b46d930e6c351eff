package helpers

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OTPLength is the number of digits in a password reset code.
const OTPLength = 6

var otpSpace = big.NewInt(1_000_000)

// GenOTPCode generates a uniformly distributed random 6-digit code as a
// zero-padded string.
func GenOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", OTPLength, n.Int64()), nil
}
