package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/dto"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/model"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/observability"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	msgVisitaNoEncontrada = "Visita no encontrada"
	msgAccesoDenegado     = "Acceso denegado"
	msgNoEditable         = "No se puede editar una visita que ya fue aprobada o rechazada"
	msgYaProcesada        = "Esta visita ya fue procesada"
	msgSoloAdmin          = "Solo administradores pueden eliminar visitas"
)

var (
	latitudMin, latitudMax   = decimal.NewFromInt(-90), decimal.NewFromInt(90)
	longitudMin, longitudMax = decimal.NewFromInt(-180), decimal.NewFromInt(180)
)

// VisitaService implements the visit workflow: ownership checks, the
// pendiente → aprobada|rechazada state machine and supplier creation on approval.
type VisitaService interface {
	Listar(ctx context.Context, actor Actor, estado string) ([]dto.VisitaResponse, error)
	ObtenerPorID(ctx context.Context, actor Actor, id uuid.UUID) (*dto.VisitaResponse, error)
	Crear(ctx context.Context, actor Actor, req dto.CrearVisitaRequest) (*dto.VisitaResponse, error)
	Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarVisitaRequest) (*dto.VisitaResponse, error)
	Rechazar(ctx context.Context, actor Actor, id uuid.UUID, req dto.RechazarVisitaRequest) (*dto.VisitaResponse, error)
	Aprobar(ctx context.Context, actor Actor, id uuid.UUID, req dto.AprobarVisitaRequest) (*dto.AprobacionResponse, error)
	DatosParaProveedor(ctx context.Context, actor Actor, id uuid.UUID) (*dto.DatosProveedorResponse, error)
	Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error
	Estadisticas(ctx context.Context, actor Actor) (*dto.EstadisticasResponse, error)
}

type visitaService struct {
	repo    repository.VisitaRepository
	metrics *observability.Metrics
	ahora   func() time.Time
}

// NewVisitaService builds the workflow service. metrics may be nil.
func NewVisitaService(repo repository.VisitaRepository, metrics *observability.Metrics) VisitaService {
	return &visitaService{
		repo:    repo,
		metrics: metrics,
		ahora:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *visitaService) Listar(ctx context.Context, actor Actor, estado string) ([]dto.VisitaResponse, error) {
	filter := dto.VisitaFilter{Estado: estado}
	if estado != "" && !model.EstadoVisita(estado).IsValid() {
		return nil, datosInvalidos("Estado invalido: use pendiente, aprobada o rechazada")
	}
	if !actor.EsAdmin() {
		filter.UsuarioID = &actor.UsuarioID
	}
	visitas, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, s.errorAlmacenamiento("listar", err)
	}
	resp := make([]dto.VisitaResponse, len(visitas))
	for i := range visitas {
		resp[i] = visitaToResponse(&visitas[i])
	}
	return resp, nil
}

func (s *visitaService) ObtenerPorID(ctx context.Context, actor Actor, id uuid.UUID) (*dto.VisitaResponse, error) {
	v, err := s.cargarAutorizada(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := visitaToResponse(v)
	return &resp, nil
}

func (s *visitaService) Crear(ctx context.Context, actor Actor, req dto.CrearVisitaRequest) (*dto.VisitaResponse, error) {
	if strings.TrimSpace(req.Nombre) == "" {
		return nil, datosInvalidos("Nombre es obligatorio")
	}
	if err := validarCoordenadas(req.Latitud, req.Longitud); err != nil {
		return nil, err
	}
	v := &model.Visita{
		Nombre:            req.Nombre,
		Email:             req.Email,
		Telefono:          req.Telefono,
		Latitud:           nullDecimal(req.Latitud),
		Longitud:          nullDecimal(req.Longitud),
		DireccionCompleta: req.DireccionCompleta,
		Ciudad:            req.Ciudad,
		Provincia:         req.Provincia,
		Observaciones:     req.Observaciones,
		Estado:            model.EstadoPendiente,
		UsuarioID:         actor.UsuarioID,
		FechaVisita:       s.ahora(),
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, s.errorAlmacenamiento("crear", err)
	}
	s.metrics.ObservarTransicion("crear", "ok")
	log.Info().Str("visita_id", v.ID.String()).Str("usuario_id", actor.UsuarioID.String()).Msg("visita creada")
	resp := visitaToResponse(v)
	return &resp, nil
}

func (s *visitaService) Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarVisitaRequest) (*dto.VisitaResponse, error) {
	v, err := s.cargarAutorizada(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if _, err := v.Estado.Siguiente(model.AccionEditar); err != nil {
		s.metrics.ObservarTransicion("editar", "estado_invalido")
		return nil, estadoInvalido(msgNoEditable)
	}
	if err := validarCoordenadas(req.Latitud.Valor, req.Longitud.Valor); err != nil {
		return nil, err
	}

	campos := camposActualizables(req)
	if err := s.repo.ActualizarCampos(ctx, id, campos); err != nil {
		return nil, s.errorEscritura("editar", err, msgNoEditable)
	}
	s.metrics.ObservarTransicion("editar", "ok")

	v, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.errorLectura(err)
	}
	resp := visitaToResponse(v)
	return &resp, nil
}

func (s *visitaService) Rechazar(ctx context.Context, actor Actor, id uuid.UUID, req dto.RechazarVisitaRequest) (*dto.VisitaResponse, error) {
	v, err := s.cargarAutorizada(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if _, err := v.Estado.Siguiente(model.AccionRechazar); err != nil {
		s.metrics.ObservarTransicion("rechazar", "estado_invalido")
		return nil, estadoInvalido(msgYaProcesada)
	}

	motivo := ""
	if req.Motivo != nil {
		motivo = *req.Motivo
	}
	fecha := s.ahora()
	if err := s.repo.Rechazar(ctx, id, motivo, fecha); err != nil {
		return nil, s.errorEscritura("rechazar", err, msgYaProcesada)
	}
	s.metrics.ObservarTransicion("rechazar", "ok")
	log.Info().Str("visita_id", id.String()).Str("accion", string(model.AccionRechazar)).
		Str("usuario_id", actor.UsuarioID.String()).Msg("visita rechazada")

	v.Estado = model.EstadoRechazada
	v.FechaDecision = &fecha
	v.MotivoRechazo = &motivo
	v.UpdatedAt = fecha
	resp := visitaToResponse(v)
	return &resp, nil
}

func (s *visitaService) Aprobar(ctx context.Context, actor Actor, id uuid.UUID, req dto.AprobarVisitaRequest) (*dto.AprobacionResponse, error) {
	v, err := s.cargarAutorizada(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if _, err := v.Estado.Siguiente(model.AccionAprobar); err != nil {
		s.metrics.ObservarTransicion("aprobar", "estado_invalido")
		return nil, estadoInvalido(msgYaProcesada)
	}

	p, err := proveedorDesdeVisita(v, req, actor)
	if err != nil {
		return nil, err
	}
	fecha := s.ahora()
	if err := s.repo.CrearProveedorYAprobar(ctx, id, p, fecha); err != nil {
		return nil, s.errorEscritura("aprobar", err, msgYaProcesada)
	}
	s.metrics.ObservarTransicion("aprobar", "ok")
	log.Info().Str("visita_id", id.String()).Str("accion", string(model.AccionAprobar)).
		Str("usuario_id", actor.UsuarioID.String()).Str("proveedor_id", p.ID.String()).
		Msg("visita aprobada, proveedor creado")

	v.Estado = model.EstadoAprobada
	v.FechaDecision = &fecha
	v.ProveedorID = &p.ID
	v.UpdatedAt = fecha
	return &dto.AprobacionResponse{
		Mensaje:   "Visita aprobada y proveedor creado con exito",
		Visita:    visitaToResponse(v),
		Proveedor: proveedorToResponse(p),
	}, nil
}

func (s *visitaService) DatosParaProveedor(ctx context.Context, actor Actor, id uuid.UUID) (*dto.DatosProveedorResponse, error) {
	v, err := s.cargarAutorizada(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return &dto.DatosProveedorResponse{
		Nombre:            v.Nombre,
		Email:             v.Email,
		Telefono:          v.Telefono,
		Ciudad:            v.Ciudad,
		Provincia:         v.Provincia,
		DireccionCompleta: v.DireccionCompleta,
		Observaciones:     v.Observaciones,
		VisitaID:          v.ID.String(),
	}, nil
}

func (s *visitaService) Eliminar(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.cargar(ctx, id); err != nil {
		return err
	}
	if !actor.EsAdmin() {
		return accesoDenegado(msgSoloAdmin)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.errorLectura(err)
	}
	s.metrics.ObservarTransicion("eliminar", "ok")
	log.Info().Str("visita_id", id.String()).Str("usuario_id", actor.UsuarioID.String()).Msg("visita eliminada")
	return nil
}

func (s *visitaService) Estadisticas(ctx context.Context, actor Actor) (*dto.EstadisticasResponse, error) {
	var owner *uuid.UUID
	if !actor.EsAdmin() {
		owner = &actor.UsuarioID
	}
	conteo, err := s.repo.ContarPorEstado(ctx, owner)
	if err != nil {
		return nil, s.errorAlmacenamiento("estadisticas", err)
	}
	resp := &dto.EstadisticasResponse{
		Pendientes: conteo[model.EstadoPendiente],
		Aprobadas:  conteo[model.EstadoAprobada],
		Rechazadas: conteo[model.EstadoRechazada],
	}
	resp.Total = resp.Pendientes + resp.Aprobadas + resp.Rechazadas
	return resp, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// cargar reports NotFound before any authorization decision.
func (s *visitaService) cargar(ctx context.Context, id uuid.UUID) (*model.Visita, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.errorLectura(err)
	}
	return v, nil
}

func (s *visitaService) cargarAutorizada(ctx context.Context, actor Actor, id uuid.UUID) (*model.Visita, error) {
	v, err := s.cargar(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.puedeActuarSobre(v) {
		return nil, accesoDenegado(msgAccesoDenegado)
	}
	return v, nil
}

func (s *visitaService) errorLectura(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return noEncontrado(msgVisitaNoEncontrada)
	}
	return s.errorAlmacenamiento("leer", err)
}

// errorEscritura maps a conditional write failure. A lost race against another
// decision surfaces as InvalidState with msgEstado.
func (s *visitaService) errorEscritura(accion string, err error, msgEstado string) error {
	switch {
	case errors.Is(err, repository.ErrEstadoCambiado):
		s.metrics.ObservarTransicion(accion, "estado_invalido")
		return estadoInvalido(msgEstado)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return noEncontrado(msgVisitaNoEncontrada)
	}
	s.metrics.ObservarTransicion(accion, "error")
	return s.errorAlmacenamiento(accion, err)
}

func (s *visitaService) errorAlmacenamiento(operacion string, err error) error {
	s.metrics.ObservarErrorAlmacenamiento(operacion)
	log.Error().Err(err).Str("operacion", operacion).Msg("error de almacenamiento en visitas")
	return almacenamiento(err)
}

// camposActualizables turns a partial update into a column map. nombre only
// applies when non-blank; every present key, nombre included, is stored as sent.
func camposActualizables(req dto.ActualizarVisitaRequest) map[string]interface{} {
	campos := make(map[string]interface{})
	if n := req.Nombre.Valor; n != nil && strings.TrimSpace(*n) != "" {
		campos[model.ColNombre] = *n
	}
	textos := []struct {
		col string
		op  dto.Opcional[string]
	}{
		{model.ColEmail, req.Email},
		{model.ColTelefono, req.Telefono},
		{model.ColDireccionCompleta, req.DireccionCompleta},
		{model.ColCiudad, req.Ciudad},
		{model.ColProvincia, req.Provincia},
		{model.ColObservaciones, req.Observaciones},
	}
	for _, t := range textos {
		if t.op.Presente {
			campos[t.col] = t.op.Valor
		}
	}
	if req.Latitud.Presente {
		campos[model.ColLatitud] = nullDecimal(req.Latitud.Valor)
	}
	if req.Longitud.Presente {
		campos[model.ColLongitud] = nullDecimal(req.Longitud.Valor)
	}
	return campos
}

// proveedorDesdeVisita merges the approval overrides over the visit's data.
func proveedorDesdeVisita(v *model.Visita, req dto.AprobarVisitaRequest, actor Actor) (*model.Proveedor, error) {
	tipo := model.TipoDocumentoCUIT
	if req.TipoDocumento.Valor != nil {
		tipo = strings.ToLower(strings.TrimSpace(*req.TipoDocumento.Valor))
		if !model.TipoDocumentoValido(tipo) {
			return nil, datosInvalidos("tipo_documento invalido: use cuit o dni")
		}
	}

	nombre := v.Nombre
	if n := req.Nombre.Valor; n != nil && strings.TrimSpace(*n) != "" {
		nombre = *n
	}

	return &model.Proveedor{
		Nombre:                 nombre,
		Email:                  sobreescribir(req.Email, v.Email),
		Telefono:               sobreescribir(req.Telefono, v.Telefono),
		Ciudad:                 sobreescribir(req.Ciudad, v.Ciudad),
		Provincia:              sobreescribir(req.Provincia, v.Provincia),
		Observaciones:          sobreescribir(req.Observaciones, v.Observaciones),
		Calle:                  req.Calle.O(""),
		Numero:                 req.Numero.O(""),
		CodigoPostal:           req.CodigoPostal.O(""),
		Barrio:                 req.Barrio.O(""),
		CUIT:                   req.CUIT.Valor,
		DNI:                    req.DNI.Valor,
		TipoDocumento:          tipo,
		CompradorResponsableID: req.CompradorResponsableID.O(actor.UsuarioID),
		Activo:                 true,
	}, nil
}

// sobreescribir returns the override when its key was sent (null clears), else actual.
func sobreescribir(o dto.Opcional[string], actual *string) *string {
	if o.Presente {
		return o.Valor
	}
	return actual
}

func validarCoordenadas(lat, lng *decimal.Decimal) error {
	if lat != nil && (lat.LessThan(latitudMin) || lat.GreaterThan(latitudMax)) {
		return datosInvalidos("latitud fuera de rango [-90, 90]")
	}
	if lng != nil && (lng.LessThan(longitudMin) || lng.GreaterThan(longitudMax)) {
		return datosInvalidos("longitud fuera de rango [-180, 180]")
	}
	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func visitaToResponse(v *model.Visita) dto.VisitaResponse {
	resp := dto.VisitaResponse{
		ID:                v.ID.String(),
		Nombre:            v.Nombre,
		Email:             v.Email,
		Telefono:          v.Telefono,
		DireccionCompleta: v.DireccionCompleta,
		Ciudad:            v.Ciudad,
		Provincia:         v.Provincia,
		Observaciones:     v.Observaciones,
		Estado:            v.Estado.String(),
		UsuarioID:         v.UsuarioID.String(),
		FechaVisita:       v.FechaVisita.Format(time.RFC3339),
		MotivoRechazo:     v.MotivoRechazo,
	}
	if v.Latitud.Valid {
		lat := v.Latitud.Decimal
		resp.Latitud = &lat
	}
	if v.Longitud.Valid {
		lng := v.Longitud.Decimal
		resp.Longitud = &lng
	}
	if v.FechaDecision != nil {
		f := v.FechaDecision.Format(time.RFC3339)
		resp.FechaDecision = &f
	}
	if v.ProveedorID != nil {
		p := v.ProveedorID.String()
		resp.ProveedorID = &p
	}
	return resp
}
