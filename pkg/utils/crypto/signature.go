// Package crypto provides digital signature utilities for PushRelay
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Signer provides HMAC-SHA256 signature functionality
type Signer struct {
	key []byte
}

// NewSigner creates a new signer with the given key
func NewSigner(key []byte) *Signer {
	return &Signer{key: key}
}

// NewSignerFromString creates a new signer with a string key
func NewSignerFromString(key string) *Signer {
	return NewSigner([]byte(key))
}

// Sign creates a signature for the given data
func (s *Signer) Sign(data []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(data)
	return mac.Sum(nil)
}

// SignString creates a signature for the given string and returns base64 encoding
func (s *Signer) SignString(data string) string {
	return base64.StdEncoding.EncodeToString(s.Sign([]byte(data)))
}

// SignHex creates a signature for the given data and returns hex encoding
func (s *Signer) SignHex(data []byte) string {
	return hex.EncodeToString(s.Sign(data))
}

// Verify verifies a signature against the given data
func (s *Signer) Verify(data, signature []byte) bool {
	return hmac.Equal(signature, s.Sign(data))
}

// VerifyString verifies a base64-encoded signature against the given string
func (s *Signer) VerifyString(data, base64Signature string) (bool, error) {
	signature, err := base64.StdEncoding.DecodeString(base64Signature)
	if err != nil {
		return false, fmt.Errorf("invalid base64 signature: %w", err)
	}
	return s.Verify([]byte(data), signature), nil
}

// SecureCompareString compares two strings in constant time
func SecureCompareString(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// DingTalk-specific signature implementation

// DingTalkSigner implements the DingTalk webhook signing scheme: the string
// "{timestampMillis}\n{secret}" is MACed with HMAC-SHA256 keyed by the secret
// itself, and the digest is base64 encoded.
type DingTalkSigner struct {
	secret string
}

// NewDingTalkSigner creates a new DingTalk signer
func NewDingTalkSigner(secret string) *DingTalkSigner {
	return &DingTalkSigner{secret: secret}
}

// Sign generates a DingTalk webhook signature for a millisecond timestamp
func (ds *DingTalkSigner) Sign(timestampMillis int64) string {
	if ds.secret == "" {
		return ""
	}

	stringToSign := strconv.FormatInt(timestampMillis, 10) + "\n" + ds.secret
	return NewSignerFromString(ds.secret).SignString(stringToSign)
}

// Verify verifies a DingTalk webhook signature
func (ds *DingTalkSigner) Verify(timestampMillis int64, signature string) bool {
	if ds.secret == "" {
		return true
	}
	return SecureCompareString(signature, ds.Sign(timestampMillis))
}
