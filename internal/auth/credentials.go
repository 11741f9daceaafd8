package auth

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input past 72 bytes.
const (
	minPasswordLen = 8
	maxPasswordLen = 72
	maxEmailLen    = 255
)

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,30}$`)

// credentialError is a user-facing validation failure; its text goes
// straight into the 400 response.
type credentialError string

func (e credentialError) Error() string { return string(e) }

var errSamePassword = credentialError("new password must differ from the old one")

type signup struct {
	Username string
	Email    string
	Password string
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeSignup trims the request and checks it against the account rules.
// Usernames are the public handle shown on comments, so they stay ASCII.
func normalizeSignup(req registerReq) (signup, error) {
	s := signup{
		Username: strings.TrimSpace(req.Username),
		Email:    normalizeEmail(req.Email),
		Password: req.Password,
	}
	if !handlePattern.MatchString(s.Username) {
		return s, credentialError("username must be 3-30 chars of letters, digits, '_', '-' or '.'")
	}
	if len(s.Email) > maxEmailLen {
		return s, credentialError("invalid email")
	}
	if addr, err := mail.ParseAddress(s.Email); err != nil || addr.Address != s.Email {
		return s, credentialError("invalid email")
	}
	if err := checkPassword(s.Password); err != nil {
		return s, err
	}
	return s, nil
}

func checkPassword(pw string) error {
	if len(pw) < minPasswordLen || len(pw) > maxPasswordLen {
		return credentialError("password must be 8-72 chars")
	}
	return nil
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// passwordMatches is false for a nil user so callers can fold "no such
// account" and "wrong password" into one answer.
func passwordMatches(u *User, pw string) bool {
	if u == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pw)) == nil
}

func isCredentialError(err error) (credentialError, bool) {
	var ce credentialError
	ok := errors.As(err, &ce)
	return ce, ok
}
