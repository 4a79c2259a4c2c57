package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrSameWarehouse     = errors.New("no se puede transferir al mismo almacén")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrUnitMismatch      = errors.New("unidad de medida incompatible")
	ErrInvalidTransition = errors.New("transición de estado inválida")
	// ErrIdempotencyMismatch: la clave (transferencia o compra) ya se usó con otros datos.
	ErrIdempotencyMismatch = errors.New("la clave de idempotencia ya se usó con otros datos")

	// ErrConflict indica una colisión de concurrencia (versión, fila creada en paralelo,
	// serialización o deadlock). Es reintentable.
	ErrConflict = errors.New("conflicto con el estado actual")
	// ErrStoreUnavailable indica un fallo de E/S del almacenamiento antes del commit. Es reintentable.
	ErrStoreUnavailable = errors.New("almacenamiento no disponible")
)

// Identity es la clave de fusión (nombre, categoría) de un producto dentro de un almacén.
type Identity struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (i Identity) String() string {
	return i.Name + "/" + i.Category
}

// StockError envuelve un error de dominio con el contexto necesario para construir un mensaje
// preciso (identidad, cantidades, unidades). errors.Is(err, Kind) funciona sobre él.
type StockError struct {
	Kind         error
	Op           string
	WarehouseID  string
	Identity     Identity
	Requested    decimal.Decimal
	Available    decimal.Decimal
	Unit         string
	ExpectedUnit string
}

func (e *StockError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	switch e.Kind {
	case ErrInsufficientStock:
		fmt.Fprintf(&b, ". Disponible: %s %s", e.Available.String(), e.Unit)
		if !e.Requested.IsZero() {
			fmt.Fprintf(&b, ", solicitado: %s %s", e.Requested.String(), e.Unit)
		}
	case ErrUnitMismatch:
		fmt.Fprintf(&b, ": registrado en %q, recibido %q", e.ExpectedUnit, e.Unit)
	case ErrIdempotencyMismatch:
		if !e.Available.IsZero() || !e.Requested.IsZero() {
			fmt.Fprintf(&b, ": registrado %s, recibido %s", e.Available.String(), e.Requested.String())
		}
	case ErrInvalidQuantity:
		if !e.Requested.IsZero() {
			fmt.Fprintf(&b, ": %s", e.Requested.String())
		}
	}
	if e.Identity.Name != "" {
		fmt.Fprintf(&b, " (producto %s", e.Identity)
		if e.WarehouseID != "" {
			fmt.Fprintf(&b, ", almacén %s", e.WarehouseID)
		}
		b.WriteString(")")
	} else if e.WarehouseID != "" {
		fmt.Fprintf(&b, " (almacén %s)", e.WarehouseID)
	}
	return b.String()
}

func (e *StockError) Unwrap() error { return e.Kind }

// IsRetryable indica si el error es transitorio (conflicto de concurrencia o almacenamiento caído).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrStoreUnavailable)
}

// IsBusiness indica si el error es una regla de negocio que se devuelve tal cual al llamador.
func IsBusiness(err error) bool {
	for _, kind := range []error{ErrInvalidQuantity, ErrSameWarehouse, ErrInsufficientStock, ErrUnitMismatch, ErrNotFound, ErrInvalidInput, ErrInvalidTransition, ErrIdempotencyMismatch} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
