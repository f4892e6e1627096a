package validation

import (
	"regexp"
	"strings"

	apperrors "catalog/internal/errors"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// UserFields is a candidate registration.
type UserFields struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Malformed *apperrors.ValidationError
}

// NormalizeUser trims identifiers and lower-cases the email so the unique
// index on email is case-insensitive.
func NormalizeUser(f *UserFields) {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
}

// User validates a registration; uniqueness is checked by the caller.
func User(f UserFields) *Checker {
	c := New()
	c.Merge(f.Malformed)

	switch {
	case c.Failed("username"):
	case f.Username == "":
		c.Required("username")
	default:
		c.Var("username", f.Username, "min=3,max=150")
		if !usernamePattern.MatchString(f.Username) {
			c.Fail("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
		}
	}

	switch {
	case c.Failed("email"):
	case f.Email == "":
		c.Required("email")
	default:
		c.Var("email", f.Email, "email,max=254")
	}

	switch {
	case c.Failed("password"):
	case f.Password == "":
		c.Required("password")
	default:
		for _, msg := range PasswordProblems(f.Password, map[string]string{
			"username":      f.Username,
			"email address": f.Email,
			"first name":    f.FirstName,
			"last name":     f.LastName,
		}) {
			c.Fail("password", msg)
		}
	}

	if !c.Failed("first_name") {
		c.Var("first_name", f.FirstName, "max=150")
	}
	if !c.Failed("last_name") {
		c.Var("last_name", f.LastName, "max=150")
	}
	return c
}
