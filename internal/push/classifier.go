package push

import (
	"fmt"
	"strings"

	"firebase.google.com/go/v4/messaging"
)

// Token error codes accepted in configuration
const (
	CodeTokenNotRegistered  = "registration-token-not-registered"
	CodeInvalidToken        = "invalid-registration-token"
	CodeSenderIDMismatch    = "sender-id-mismatch"
	CodeThirdPartyAuthError = "third-party-auth-error"
)

// DefaultInvalidTokenCodes are the codes that cause a token to be pruned by default
var DefaultInvalidTokenCodes = []string{CodeTokenNotRegistered, CodeInvalidToken}

// tokenErrorChecks maps configurable codes onto the SDK's error predicates
var tokenErrorChecks = map[string]func(error) bool{
	CodeTokenNotRegistered:  messaging.IsUnregistered,
	CodeInvalidToken:        isMalformedToken,
	CodeSenderIDMismatch:    messaging.IsSenderIDMismatch,
	CodeThirdPartyAuthError: messaging.IsThirdPartyAuthError,
}

// isMalformedToken matches INVALID_ARGUMENT only when FCM blames the registration token.
// The same status is returned for oversized payloads and bad message fields, which say
// nothing about the device.
func isMalformedToken(err error) bool {
	return messaging.IsInvalidArgument(err) &&
		strings.Contains(strings.ToLower(err.Error()), "registration token")
}

type tokenCheck struct {
	code  string
	match func(error) bool
}

// TokenErrorClassifier decides which send errors mean the token is permanently unusable
type TokenErrorClassifier struct {
	checks []tokenCheck
}

// NewTokenErrorClassifier builds a classifier for the given codes.
// Unknown codes are rejected so a typo in configuration is not silently ignored.
func NewTokenErrorClassifier(codes []string) (*TokenErrorClassifier, error) {
	return newTokenErrorClassifier(codes, tokenErrorChecks)
}

func newTokenErrorClassifier(codes []string, registry map[string]func(error) bool) (*TokenErrorClassifier, error) {
	c := &TokenErrorClassifier{}
	seen := make(map[string]bool)
	for _, raw := range codes {
		code := strings.TrimPrefix(strings.TrimSpace(raw), "messaging/")
		if code == "" || seen[code] {
			continue
		}
		match, ok := registry[code]
		if !ok {
			return nil, fmt.Errorf("unknown token error code %q", raw)
		}
		seen[code] = true
		c.checks = append(c.checks, tokenCheck{code: code, match: match})
	}
	return c, nil
}

// Code returns the configured code matching err, or "" when none does
func (c *TokenErrorClassifier) Code(err error) string {
	if err == nil {
		return ""
	}
	for _, check := range c.checks {
		if check.match(err) {
			return check.code
		}
	}
	return ""
}

// IsInvalidToken reports whether err should cause the token to be removed
func (c *TokenErrorClassifier) IsInvalidToken(err error) bool {
	return c.Code(err) != ""
}

// Codes lists the configured codes in order
func (c *TokenErrorClassifier) Codes() []string {
	codes := make([]string, len(c.checks))
	for i, check := range c.checks {
		codes[i] = check.code
	}
	return codes
}
