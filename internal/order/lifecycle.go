package order

import (
	"errors"
	"fmt"

	"kioskpos/internal/model"
)

var (
	ErrUnknownStatus       = errors.New("statut de commande invalide")
	ErrInvalidTransition   = errors.New("transition de statut invalide")
	ErrTransitionForbidden = errors.New("rôle non autorisé pour cette transition")
)

type step struct {
	to      model.OrderStatus
	allowed model.RoleSet
}

// lifecycle maps each status to its single successor. delivered is terminal.
var lifecycle = map[model.OrderStatus]*step{
	model.StatusPending:   {to: model.StatusPreparing, allowed: model.Roles(model.RolePreparer, model.RoleFrontdesk)},
	model.StatusPreparing: {to: model.StatusReady, allowed: model.Roles(model.RolePreparer, model.RoleFrontdesk)},
	model.StatusReady:     {to: model.StatusDelivered, allowed: model.Roles(model.RolePreparer, model.RoleFrontdesk)},
	model.StatusDelivered: nil,
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (model.OrderStatus, error) {
	s := model.OrderStatus(raw)
	if _, ok := lifecycle[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

// Next returns the successor of from, if any.
func Next(from model.OrderStatus) (model.OrderStatus, bool) {
	st := lifecycle[from]
	if st == nil {
		return "", false
	}
	return st.to, true
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s model.OrderStatus) bool {
	_, ok := Next(s)
	return !ok
}

// AllowedRoles lists the roles that may move an order out of from.
func AllowedRoles(from model.OrderStatus) model.RoleSet {
	if st := lifecycle[from]; st != nil {
		return st.allowed
	}
	return nil
}

// Transition validates moving an order from → to on behalf of role. It is a pure
// check; persisting the new status is the caller's job.
func Transition(from, to model.OrderStatus, role model.Role) error {
	if _, ok := lifecycle[from]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if _, ok := lifecycle[to]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	st := lifecycle[from]
	if st == nil || st.to != to {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
	}
	if !st.allowed.Contains(role) {
		return fmt.Errorf("%w: %s → %s par %q", ErrTransitionForbidden, from, to, role)
	}
	return nil
}
