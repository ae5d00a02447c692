package crypto

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1"}}}}`)
	secret := "whsec"
	sig := SignPayload(payload, secret)

	assert.True(t, VerifyWebhookSignature(payload, sig, secret))
	assert.False(t, VerifyWebhookSignature(payload, sig, "other-secret"))
	assert.False(t, VerifyWebhookSignature(payload, "", secret))
	assert.False(t, VerifyWebhookSignature(payload, sig, ""))
	assert.False(t, VerifyWebhookSignature(payload, "deadbeef", secret))
}

func TestVerifyWebhookSignatureRejectsEveryFlippedByte(t *testing.T) {
	payload := []byte(`{"event":"payment.captured","amount":49900}`)
	secret := "whsec"
	sig := SignPayload(payload, secret)

	for i := range payload {
		tampered := append([]byte(nil), payload...)
		tampered[i] ^= 0x01
		assert.Falsef(t, VerifyWebhookSignature(tampered, sig, secret), "byte %d flipped still verified", i)
	}
}

func TestRandomHex(t *testing.T) {
	a, err := RandomHex(12)
	require.NoError(t, err)
	b, err := RandomHex(12)
	require.NoError(t, err)

	assert.Len(t, a, 24)
	assert.NotEqual(t, a, b)

	_, err = RandomHex(0)
	assert.Error(t, err)
}

func TestReferralCode(t *testing.T) {
	code, err := ReferralCode("AbCdEfGhIj")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^AbCdEf[0-9]{1,3}$`), code)

	short, err := ReferralCode("abc")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^abc[0-9]{1,3}$`), short)

	_, err = ReferralCode("")
	assert.Error(t, err)
}
