package common

import "strings"

// WipeByteArray overwrites the contents of b with zeros. Used for passwords
// read from the terminal. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ValidateCredentials applies the same rules the server enforces so that an
// obviously bad form never leaves the client.
func ValidateCredentials(username string, password []byte) error {
	if strings.TrimSpace(username) == "" {
		return ErrEmptyUsername
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// ValidateContent rejects blank post bodies.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	return nil
}
