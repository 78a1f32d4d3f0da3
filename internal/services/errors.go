package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. Handlers map kinds to HTTP statuses.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindAlreadyEnrolled
	KindInvalidCredential
	KindValidation
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAlreadyEnrolled:
		return "already_enrolled"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is the structured failure returned by every service operation.
// Message is safe to show to the subscriber; Err is for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Client-facing messages.
const (
	MsgPhoneNotFound     = "Numéro non trouvé"
	MsgPhoneRequired     = "Numéro de téléphone requis"
	MsgPINAlreadySet     = "Code PIN déjà défini"
	MsgPINIncorrect      = "Code PIN incorrect"
	MsgPINNotSet         = "Code PIN non défini"
	MsgUnauthorized      = "Non autorisé"
	MsgSessionExpired    = "Session expirée"
	MsgUnknownResource   = "Resource non reconnue"
	MsgUnknownAction     = "Action non reconnue"
	MsgPaymentNotFound   = "Paiement non trouvé"
	MsgBouquetNotFound   = "Bouquet non trouvé"
	MsgInvalidMethod     = "Méthode de paiement invalide"
	MsgInvalidMonths     = "Nombre de mois invalide"
	MsgNoBouquetPrice    = "Aucun bouquet à payer"
	MsgSubjectTooShort   = "Le sujet doit faire au moins 5 caractères"
	MsgDescTooShort      = "La description doit faire au moins 10 caractères"
	MsgInvalidPriority   = "Priorité invalide"
	MsgSubscriberMissing = "Abonné non trouvé"
	MsgServerError       = "Erreur serveur"
)

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func internalError(err error) *Error {
	return &Error{Kind: KindInternal, Message: MsgServerError, Err: err}
}

// KindOf returns the kind of err, KindInternal for anything unstructured.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a service Error of kind k.
func IsKind(err error, k Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == k
}
