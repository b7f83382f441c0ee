package users

import (
	"strings"

	"github.com/guarzo/bcards/common/model"
)

// Filter returns the users whose first name, last name or email contains
// term, ignoring case. A blank term matches everything. The result is a new
// slice.
func Filter(users []model.User, term string) []model.User {
	term = strings.ToLower(strings.TrimSpace(term))

	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if term == "" ||
			strings.Contains(strings.ToLower(u.Name.First), term) ||
			strings.Contains(strings.ToLower(u.Name.Last), term) ||
			strings.Contains(strings.ToLower(u.Email), term) {
			out = append(out, u)
		}
	}
	return out
}
