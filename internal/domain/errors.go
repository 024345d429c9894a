package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")

	// Precondiciones del motor de remitos: se rechazan con motivo específico,
	// nunca se reintentan automáticamente.
	ErrStatusNotAllowed = errors.New("operación no permitida en el estado actual")
	ErrEmptyPurchase    = errors.New("la compra no tiene renglones")
	ErrZeroTotal        = errors.New("la compra tiene total cero")
	ErrReasonRequired   = errors.New("el motivo de anulación es obligatorio")
	ErrNoAttachment     = errors.New("la compra no tiene remito adjunto")
	ErrAlreadyReverted  = errors.New("el stock de esta confirmación ya fue revertido")
)
