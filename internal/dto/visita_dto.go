package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearVisitaRequest struct {
	Nombre            string           `json:"nombre"`
	Email             *string          `json:"email"`
	Telefono          *string          `json:"telefono"`
	Latitud           *decimal.Decimal `json:"latitud"            validate:"omitempty,gte=-90,lte=90"`
	Longitud          *decimal.Decimal `json:"longitud"           validate:"omitempty,gte=-180,lte=180"`
	DireccionCompleta *string          `json:"direccion_completa"`
	Ciudad            *string          `json:"ciudad"`
	Provincia         *string          `json:"provincia"`
	Observaciones     *string          `json:"observaciones"`
}

// ActualizarVisitaRequest is a partial update: only keys present in the body are applied.
type ActualizarVisitaRequest struct {
	Nombre            Opcional[string]          `json:"nombre"`
	Email             Opcional[string]          `json:"email"`
	Telefono          Opcional[string]          `json:"telefono"`
	Latitud           Opcional[decimal.Decimal] `json:"latitud"`
	Longitud          Opcional[decimal.Decimal] `json:"longitud"`
	DireccionCompleta Opcional[string]          `json:"direccion_completa"`
	Ciudad            Opcional[string]          `json:"ciudad"`
	Provincia         Opcional[string]          `json:"provincia"`
	Observaciones     Opcional[string]          `json:"observaciones"`
}

type RechazarVisitaRequest struct {
	Motivo *string `json:"motivo" validate:"omitempty,max=1000"`
}

// AprobarVisitaRequest overrides the supplier fields derived from the visit.
// Absent keys fall back to the visit (or to the documented default).
// A blank nombre also falls back to the visit's name, since a supplier always has one.
type AprobarVisitaRequest struct {
	Nombre                 Opcional[string]    `json:"nombre"`
	Email                  Opcional[string]    `json:"email"`
	Telefono               Opcional[string]    `json:"telefono"`
	Ciudad                 Opcional[string]    `json:"ciudad"`
	Provincia              Opcional[string]    `json:"provincia"`
	Calle                  Opcional[string]    `json:"calle"`
	Numero                 Opcional[string]    `json:"numero"`
	CodigoPostal           Opcional[string]    `json:"codigo_postal"`
	Barrio                 Opcional[string]    `json:"barrio"`
	CUIT                   Opcional[string]    `json:"cuit"`
	DNI                    Opcional[string]    `json:"dni"`
	TipoDocumento          Opcional[string]    `json:"tipo_documento"`
	Observaciones          Opcional[string]    `json:"observaciones"`
	CompradorResponsableID Opcional[uuid.UUID] `json:"comprador_responsable_id"`
}

// VisitaFilter is consumed by VisitaRepository.List. A nil UsuarioID means "all owners".
type VisitaFilter struct {
	UsuarioID *uuid.UUID
	Estado    string
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type VisitaResponse struct {
	ID                string           `json:"id"`
	Nombre            string           `json:"nombre"`
	Email             *string          `json:"email"`
	Telefono          *string          `json:"telefono"`
	Latitud           *decimal.Decimal `json:"latitud"`
	Longitud          *decimal.Decimal `json:"longitud"`
	DireccionCompleta *string          `json:"direccion_completa"`
	Ciudad            *string          `json:"ciudad"`
	Provincia         *string          `json:"provincia"`
	Observaciones     *string          `json:"observaciones"`
	Estado            string           `json:"estado"`
	UsuarioID         string           `json:"usuario_id"`
	FechaVisita       string           `json:"fecha_visita"`
	FechaDecision     *string          `json:"fecha_decision"`
	MotivoRechazo     *string          `json:"motivo_rechazo"`
	ProveedorID       *string          `json:"proveedor_id"`
}

// VisitaMensajeResponse wraps a mutated visit with a human-readable message.
type VisitaMensajeResponse struct {
	Mensaje string         `json:"mensaje"`
	Visita  VisitaResponse `json:"visita"`
}

type AprobacionResponse struct {
	Mensaje   string            `json:"mensaje"`
	Visita    VisitaResponse    `json:"visita"`
	Proveedor ProveedorResponse `json:"proveedor"`
}

// DatosProveedorResponse is the read-only projection used to pre-fill a supplier form.
type DatosProveedorResponse struct {
	Nombre            string  `json:"nombre"`
	Email             *string `json:"email"`
	Telefono          *string `json:"telefono"`
	Ciudad            *string `json:"ciudad"`
	Provincia         *string `json:"provincia"`
	DireccionCompleta *string `json:"direccion_completa"`
	Observaciones     *string `json:"observaciones"`
	VisitaID          string  `json:"visita_id"`
}

type EstadisticasResponse struct {
	Total      int64 `json:"total"`
	Pendientes int64 `json:"pendientes"`
	Aprobadas  int64 `json:"aprobadas"`
	Rechazadas int64 `json:"rechazadas"`
}
