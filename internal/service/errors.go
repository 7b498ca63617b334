package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("ressource introuvable")
	ErrDuplicateEmail     = errors.New("Cet email est déjà utilisé")
	ErrInvalidCredentials = errors.New("Email ou mot de passe incorrect")
	// ErrNumberingConflict means every numbering attempt collided with a concurrent creation.
	ErrNumberingConflict = errors.New("impossible d'attribuer un numéro de commande, veuillez réessayer")
	ErrUnknownItemKind   = errors.New("type d'article inconnu")
)

// FieldError rejects one input field. Handlers render it in the validation envelope.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fieldError(field, msg string) error {
	return &FieldError{Field: field, Message: msg}
}
