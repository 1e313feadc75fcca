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

	// ErrCredential: certificado o clave privada ausentes o ilegibles para el
	// punto de venta. Fatal hasta que se reemplacen las credenciales.
	ErrCredential = errors.New("credenciales del punto de venta inválidas")

	// ErrTransport: AFIP inalcanzable o falla de red. Reintentable con el
	// mismo payload; nunca debe interpretarse como rechazo.
	ErrTransport = errors.New("falla de transporte con AFIP")
)
