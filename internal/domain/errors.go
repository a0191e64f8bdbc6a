package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrRecordNotFound         = errors.New("registro no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrInvalidStateTransition = errors.New("transición de estado inválida")
	ErrImmutableEntity        = errors.New("la entidad es inmutable")
	ErrQuantityMismatch       = errors.New("las cantidades de la entrega no cuadran")
	ErrOverDelivery           = errors.New("la cantidad recibida excede lo ordenado")
	ErrUnknownAcquisitionItem = errors.New("el ítem no tiene registro de adquisición")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrProjectionDrift        = errors.New("la proyección no coincide con el log de eventos")
)

// StateError describe un intento de operación incompatible con el estado de la licitación.
type StateError struct {
	Kind     error // ErrInvalidStateTransition o ErrImmutableEntity
	TenderID string
	State    string
	Op       string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%v: licitación %s en estado %s no admite %s", e.Kind, e.TenderID, e.State, e.Op)
}

func (e *StateError) Unwrap() error { return e.Kind }

// QuantityError se devuelve cuando good + damaged + rejected != delivered.
type QuantityError struct {
	TenderID  string
	ItemID    string
	Delivered int64
	Good      int64
	Damaged   int64
	Rejected  int64
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("%v: licitación %s, ítem %s: entregado=%d, buenos=%d, dañados=%d, rechazados=%d",
		ErrQuantityMismatch, e.TenderID, e.ItemID, e.Delivered, e.Good, e.Damaged, e.Rejected)
}

func (e *QuantityError) Unwrap() error { return ErrQuantityMismatch }

// OverDeliveryError se devuelve cuando el acumulado recibido supera lo ordenado más la tolerancia.
type OverDeliveryError struct {
	TenderID        string
	ItemID          string
	Ordered         int64
	AlreadyReceived int64
	Attempted       int64
	Allowed         int64
}

func (e *OverDeliveryError) Error() string {
	return fmt.Sprintf("%v: licitación %s, ítem %s: ordenado=%d, recibido=%d, intento=%d, máximo permitido=%d",
		ErrOverDelivery, e.TenderID, e.ItemID, e.Ordered, e.AlreadyReceived, e.Attempted, e.Allowed)
}

func (e *OverDeliveryError) Unwrap() error { return ErrOverDelivery }

// ItemError asocia un error de dominio a una licitación/ítem concretos.
type ItemError struct {
	Kind     error
	TenderID string
	ItemID   string
	Detail   string
}

func (e *ItemError) Error() string {
	msg := fmt.Sprintf("%v: licitación %s, ítem %s", e.Kind, e.TenderID, e.ItemID)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ItemError) Unwrap() error { return e.Kind }

// NotFound envuelve ErrRecordNotFound con el tipo y el id buscados.
func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", ErrRecordNotFound, kind, id)
}
