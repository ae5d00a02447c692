package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/razorpay/razorpay-go/utils"
)

// referralSuffixDigits is the number of random decimal digits appended to a referral code.
const referralSuffixDigits = 3

// SignPayload returns the lowercase hex HMAC-SHA256 of payload under secret,
// the format the gateway sends in its signature header.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks a gateway webhook signature over the raw request body.
// Empty signatures or secrets never verify.
func VerifyWebhookSignature(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(payload), signature, secret)
}

// RandomHex returns n random bytes hex-encoded.
func RandomHex(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("byte count must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ReferralCode derives a shareable code from a user id: the first six characters of the uid
// followed by up to three random digits.
func ReferralCode(uid string) (string, error) {
	if uid == "" {
		return "", errors.New("uid cannot be empty")
	}
	prefix := uid
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	limit := big.NewInt(1)
	for i := 0; i < referralSuffixDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate referral suffix: %w", err)
	}
	return prefix + n.String(), nil
}
