package cards

import (
	"strings"

	"github.com/guarzo/bcards/common/model"
)

// Filter returns the cards whose title, description, city, street or
// country contains term, ignoring case. A blank term matches everything.
// The result never shares memory with cards.
func Filter(cards []model.Card, term string) []model.Card {
	term = strings.ToLower(strings.TrimSpace(term))

	out := make([]model.Card, 0, len(cards))
	for _, c := range cards {
		if term == "" || matches(c, term) {
			out = append(out, c.Clone())
		}
	}
	return out
}

func matches(c model.Card, term string) bool {
	for _, field := range []string{
		c.Title,
		c.Description,
		c.Address.City,
		c.Address.Street,
		c.Address.Country,
	} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
