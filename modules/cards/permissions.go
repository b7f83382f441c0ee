package cards

import (
	"github.com/guarzo/bcards/common"
	"github.com/guarzo/bcards/common/model"
)

// CanCreate reports whether ident may create cards: business accounts and
// admins only.
func CanCreate(ident *model.Identity) bool {
	return ident != nil && (ident.IsBusiness || ident.IsAdmin)
}

// CanEdit reports whether ident may edit or delete card: its owner or an
// admin.
func CanEdit(ident *model.Identity, card *model.Card) bool {
	if ident == nil || card == nil {
		return false
	}
	return ident.IsAdmin || (card.UserID != "" && card.UserID == ident.ID)
}

// CheckCreate returns common.ErrForbidden unless CanCreate holds.
func CheckCreate(ident *model.Identity) error {
	if !CanCreate(ident) {
		return common.ErrForbidden
	}
	return nil
}

// CheckEdit returns common.ErrForbidden unless CanEdit holds.
func CheckEdit(ident *model.Identity, card *model.Card) error {
	if !CanEdit(ident, card) {
		return common.ErrForbidden
	}
	return nil
}
