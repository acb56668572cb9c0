package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EstadoVisita: "pendiente" | "aprobada" | "rechazada"
type EstadoVisita string

const (
	EstadoPendiente EstadoVisita = "pendiente"
	EstadoAprobada  EstadoVisita = "aprobada"
	EstadoRechazada EstadoVisita = "rechazada"
)

// AccionVisita is a workflow trigger applied to a visit.
type AccionVisita string

const (
	AccionEditar   AccionVisita = "editar"
	AccionAprobar  AccionVisita = "aprobar"
	AccionRechazar AccionVisita = "rechazar"
)

// ErrTransicionInvalida is returned when an action is not permitted from the current state.
var ErrTransicionInvalida = errors.New("transicion de estado invalida")

// transicionesVisita lists every permitted move. Terminal states have no entry.
var transicionesVisita = map[EstadoVisita]map[AccionVisita]EstadoVisita{
	EstadoPendiente: {
		AccionEditar:   EstadoPendiente,
		AccionAprobar:  EstadoAprobada,
		AccionRechazar: EstadoRechazada,
	},
}

func (e EstadoVisita) String() string { return string(e) }

// IsValid reports whether e is one of the known states.
func (e EstadoVisita) IsValid() bool {
	switch e {
	case EstadoPendiente, EstadoAprobada, EstadoRechazada:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition can leave e.
func (e EstadoVisita) IsTerminal() bool {
	return e.IsValid() && len(transicionesVisita[e]) == 0
}

// Siguiente returns the state reached by applying accion to e.
func (e EstadoVisita) Siguiente(accion AccionVisita) (EstadoVisita, error) {
	destino, ok := transicionesVisita[e][accion]
	if !ok {
		return e, fmt.Errorf("%w: %s desde %s", ErrTransicionInvalida, accion, e)
	}
	return destino, nil
}

// Visita is a site-visit request for a prospective supplier.
// Descriptive fields are editable only while Estado is "pendiente"; the decision
// fields (FechaDecision, MotivoRechazo, ProveedorID) are written once, by the transition.
type Visita struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre            string    `gorm:"not null"`
	Email             *string
	Telefono          *string
	Latitud           decimal.NullDecimal `gorm:"type:decimal(10,7)"`
	Longitud          decimal.NullDecimal `gorm:"type:decimal(10,7)"`
	DireccionCompleta *string
	Ciudad            *string
	Provincia         *string
	Observaciones     *string

	Estado EstadoVisita `gorm:"type:varchar(20);not null;default:'pendiente';index"`
	// UsuarioID is the owner: the user that created the visit. Never updated.
	UsuarioID     uuid.UUID `gorm:"type:uuid;not null;index"`
	FechaVisita   time.Time `gorm:"not null;index"`
	FechaDecision *time.Time
	MotivoRechazo *string
	// ProveedorID links to the supplier created on approval.
	ProveedorID *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Visita) TableName() string { return "visitas" }

func (v *Visita) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Columnas editables de Visita. The workflow columns are deliberately absent.
const (
	ColNombre            = "nombre"
	ColEmail             = "email"
	ColTelefono          = "telefono"
	ColLatitud           = "latitud"
	ColLongitud          = "longitud"
	ColDireccionCompleta = "direccion_completa"
	ColCiudad            = "ciudad"
	ColProvincia         = "provincia"
	ColObservaciones     = "observaciones"
)
