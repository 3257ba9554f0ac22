package orders

import (
	"errors"
	"fmt"
)

// Kind classe les échecs du workflow pour la couche HTTP.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindForbidden  Kind = "forbidden"
	KindInternal   Kind = "internal"
)

// Messages renvoyés tels quels au client.
const (
	MsgInvalidInput     = "Veuillez renseigner correctement toutes les informations"
	MsgCartNotFound     = "Panier introuvable"
	MsgCartEmpty        = "Panier vide"
	MsgQuantityInvalid  = "Quantité invalide"
	MsgPaymentIntentReq = "paymentIntentId requis"
	MsgOrderForbidden   = "Accès non autorisé à cette commande"
	MsgStockContended   = "Article très demandé, veuillez réessayer"
	MsgOrderAlreadyPaid = "Commande déjà payée"
	MsgSearchQueryReq   = "Paramètre de recherche requis"
	MsgInternal         = "Erreur serveur"
)

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

func validationError(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func notFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflictError(msg string, err error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

func forbiddenError(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

func internalError(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: MsgInternal, Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf retourne la catégorie d'une erreur, KindInternal si elle n'en porte pas.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
