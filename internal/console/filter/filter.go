// Package filter narrows the users table without another fetch.
package filter

import (
	"strings"

	"github.com/matheus3301/chatadmin/internal/entity"
)

// UserFilter holds the populated predicates. Empty fields match anything.
type UserFilter struct {
	DisplayName string
	Email       string
	PhoneNumber string
	Status      string
}

// IsZero reports whether no predicate is populated.
func (f UserFilter) IsZero() bool {
	return blank(f.DisplayName) && blank(f.Email) && blank(f.PhoneNumber) && blank(f.Status)
}

// Matches reports whether u satisfies every populated predicate. Text
// fields match case-insensitive substrings; status must equal the user's
// effective status, ignoring case.
func (f UserFilter) Matches(u entity.User) bool {
	if !contains(u.DisplayName, f.DisplayName) ||
		!contains(u.Email, f.Email) ||
		!contains(u.PhoneNumber, f.PhoneNumber) {
		return false
	}
	if !blank(f.Status) && !strings.EqualFold(strings.TrimSpace(f.Status), string(u.EffectiveStatus())) {
		return false
	}
	return true
}

// Apply returns the matching users in their original order. users is not
// modified.
func (f UserFilter) Apply(users []entity.User) []entity.User {
	out := make([]entity.User, 0, len(users))
	for _, u := range users {
		if f.Matches(u) {
			out = append(out, u)
		}
	}
	return out
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func contains(value, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(needle))
}
