package validation

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// PasswordMinLength is the shortest accepted password.
const PasswordMinLength = 8

// maxSimilarity is the ratio at or above which a password counts as too
// similar to one of the user's attributes.
const maxSimilarity = 0.7

//go:embed common_passwords.txt
var commonPasswordList string

var (
	commonPasswords = loadCommonPasswords(commonPasswordList)
	nonWord         = regexp.MustCompile(`\W+`)
)

func loadCommonPasswords(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		if p := strings.TrimSpace(line); p != "" && !strings.HasPrefix(p, "#") {
			set[strings.ToLower(p)] = struct{}{}
		}
	}
	return set
}

// PasswordProblems returns every weak-password finding for password. attrs
// maps a human-readable attribute name to the user's value for it.
func PasswordProblems(password string, attrs map[string]string) []string {
	var problems []string

	if len([]rune(password)) < PasswordMinLength {
		problems = append(problems, fmt.Sprintf("This password is too short. It must contain at least %d characters.", PasswordMinLength))
	}
	if isNumeric(password) {
		problems = append(problems, "This password is entirely numeric.")
	}
	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; ok {
		problems = append(problems, "This password is too common.")
	}
	if attr := similarAttribute(password, attrs); attr != "" {
		problems = append(problems, fmt.Sprintf("The password is too similar to the %s.", attr))
	}
	return problems
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func similarAttribute(password string, attrs map[string]string) string {
	pw := strings.ToLower(password)
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := strings.ToLower(attrs[name])
		if value == "" {
			continue
		}
		parts := append(nonWord.Split(value, -1), value)
		for _, part := range parts {
			if len(part) < 3 {
				continue
			}
			if strings.Contains(pw, part) && len(part)*10 >= len(pw)*7 {
				return name
			}
			if similarity(pw, part) >= maxSimilarity {
				return name
			}
		}
	}
	return ""
}

func similarity(a, b string) float64 {
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
