package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/dto"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/model"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/observability"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory VisitaRepository ───────────────────────────────────────────────

type stubVisitaRepo struct {
	mu          sync.Mutex
	visitas     map[uuid.UUID]*model.Visita
	proveedores map[uuid.UUID]*model.Proveedor

	// failure injection
	errFind    error
	errAprobar error // returned from inside the "transaction", after the supplier insert
	errList    error
}

var _ repository.VisitaRepository = (*stubVisitaRepo)(nil)

func newStubVisitaRepo() *stubVisitaRepo {
	return &stubVisitaRepo{
		visitas:     make(map[uuid.UUID]*model.Visita),
		proveedores: make(map[uuid.UUID]*model.Proveedor),
	}
}

func (r *stubVisitaRepo) Create(_ context.Context, v *model.Visita) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	cp := *v
	r.visitas[v.ID] = &cp
	return nil
}

func (r *stubVisitaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Visita, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.errFind != nil {
		return nil, r.errFind
	}
	v, ok := r.visitas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *stubVisitaRepo) List(_ context.Context, f dto.VisitaFilter) ([]model.Visita, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.errList != nil {
		return nil, r.errList
	}
	var out []model.Visita
	for _, v := range r.visitas {
		if f.UsuarioID != nil && v.UsuarioID != *f.UsuarioID {
			continue
		}
		if f.Estado != "" && string(v.Estado) != f.Estado {
			continue
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FechaVisita.After(out[j].FechaVisita) })
	return out, nil
}

func (r *stubVisitaRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.visitas[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.visitas, id)
	return nil
}

// pendiente must be called under lock.
func (r *stubVisitaRepo) pendiente(id uuid.UUID) (*model.Visita, error) {
	v, ok := r.visitas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if v.Estado != model.EstadoPendiente {
		return nil, repository.ErrEstadoCambiado
	}
	return v, nil
}

func (r *stubVisitaRepo) ActualizarCampos(_ context.Context, id uuid.UUID, campos map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, err := r.pendiente(id)
	if err != nil {
		return err
	}
	for col, val := range campos {
		switch col {
		case model.ColNombre:
			v.Nombre = val.(string)
		case model.ColEmail:
			v.Email = val.(*string)
		case model.ColTelefono:
			v.Telefono = val.(*string)
		case model.ColDireccionCompleta:
			v.DireccionCompleta = val.(*string)
		case model.ColCiudad:
			v.Ciudad = val.(*string)
		case model.ColProvincia:
			v.Provincia = val.(*string)
		case model.ColObservaciones:
			v.Observaciones = val.(*string)
		case model.ColLatitud:
			v.Latitud = val.(decimal.NullDecimal)
		case model.ColLongitud:
			v.Longitud = val.(decimal.NullDecimal)
		default:
			return errors.New("columna no editable: " + col)
		}
	}
	return nil
}

func (r *stubVisitaRepo) Rechazar(_ context.Context, id uuid.UUID, motivo string, fecha time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, err := r.pendiente(id)
	if err != nil {
		return err
	}
	v.Estado = model.EstadoRechazada
	v.MotivoRechazo = &motivo
	v.FechaDecision = &fecha
	return nil
}

// CrearProveedorYAprobar mimics the transaction: the supplier is staged and
// only kept when the visit update succeeds.
func (r *stubVisitaRepo) CrearProveedorYAprobar(_ context.Context, id uuid.UUID, p *model.Proveedor, fecha time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if r.errAprobar != nil {
		return r.errAprobar
	}
	v, err := r.pendiente(id)
	if err != nil {
		return err
	}
	cp := *p
	r.proveedores[p.ID] = &cp
	v.Estado = model.EstadoAprobada
	v.FechaDecision = &fecha
	v.ProveedorID = &cp.ID
	return nil
}

func (r *stubVisitaRepo) ContarPorEstado(_ context.Context, usuarioID *uuid.UUID) (map[model.EstadoVisita]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[model.EstadoVisita]int64)
	for _, v := range r.visitas {
		if usuarioID != nil && v.UsuarioID != *usuarioID {
			continue
		}
		out[v.Estado]++
	}
	return out, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func strp(s string) *string { return &s }

type entorno struct {
	repo  *stubVisitaRepo
	svc   VisitaService
	ctx   context.Context
	admin Actor
	ana   Actor
	beto  Actor
}

func nuevoEntorno(t *testing.T) *entorno {
	t.Helper()
	repo := newStubVisitaRepo()
	return &entorno{
		repo:  repo,
		svc:   NewVisitaService(repo, observability.NewMetrics()),
		ctx:   context.Background(),
		admin: Actor{UsuarioID: uuid.New(), Rol: model.RolAdministrador},
		ana:   Actor{UsuarioID: uuid.New(), Rol: model.RolComprador},
		beto:  Actor{UsuarioID: uuid.New(), Rol: model.RolComprador},
	}
}

func (e *entorno) crear(t *testing.T, actor Actor, nombre string) *dto.VisitaResponse {
	t.Helper()
	v, err := e.svc.Crear(e.ctx, actor, dto.CrearVisitaRequest{
		Nombre:   nombre,
		Email:    strp("contacto@" + nombre + ".test"),
		Telefono: strp("555-0100"),
		Ciudad:   strp("Springfield"),
	})
	require.NoError(t, err)
	return v
}

func id(t *testing.T, v *dto.VisitaResponse) uuid.UUID {
	t.Helper()
	u, err := uuid.Parse(v.ID)
	require.NoError(t, err)
	return u
}

// ── Crear ────────────────────────────────────────────────────────────────────

func TestCrear_NombreObligatorio(t *testing.T) {
	e := nuevoEntorno(t)
	for _, nombre := range []string{"", "   "} {
		_, err := e.svc.Crear(e.ctx, e.ana, dto.CrearVisitaRequest{Nombre: nombre})
		assert.ErrorIs(t, err, ErrDatosInvalidos)
	}
	assert.Empty(t, e.repo.visitas)
}

func TestCrear_PendientePropiaDelActor(t *testing.T) {
	e := nuevoEntorno(t)
	lat := decimal.RequireFromString("-34.6037000")
	v, err := e.svc.Crear(e.ctx, e.ana, dto.CrearVisitaRequest{Nombre: "Acme", Latitud: &lat})
	require.NoError(t, err)

	assert.Equal(t, "pendiente", v.Estado)
	assert.Equal(t, e.ana.UsuarioID.String(), v.UsuarioID)
	assert.Nil(t, v.FechaDecision)
	assert.Nil(t, v.ProveedorID)
	assert.Nil(t, v.Email)
	require.NotNil(t, v.Latitud)
	assert.True(t, lat.Equal(*v.Latitud))
	assert.Nil(t, v.Longitud)
}

func TestCrear_NombreSeGuardaComoSeEnvio(t *testing.T) {
	e := nuevoEntorno(t)
	v, err := e.svc.Crear(e.ctx, e.ana, dto.CrearVisitaRequest{Nombre: "  Acme  "})
	require.NoError(t, err)
	assert.Equal(t, "  Acme  ", v.Nombre)
	assert.Equal(t, "  Acme  ", e.repo.visitas[id(t, v)].Nombre)

	got, err := e.svc.Actualizar(e.ctx, e.ana, id(t, v), dto.ActualizarVisitaRequest{Nombre: dto.Con(" Acme SRL ")})
	require.NoError(t, err)
	assert.Equal(t, " Acme SRL ", got.Nombre)

	got, err = e.svc.Actualizar(e.ctx, e.ana, id(t, v), dto.ActualizarVisitaRequest{Nombre: dto.Con("   ")})
	require.NoError(t, err)
	assert.Equal(t, " Acme SRL ", got.Nombre)
}

func TestCrear_CoordenadasFueraDeRango(t *testing.T) {
	e := nuevoEntorno(t)
	lat := decimal.NewFromInt(91)
	_, err := e.svc.Crear(e.ctx, e.ana, dto.CrearVisitaRequest{Nombre: "Acme", Latitud: &lat})
	assert.ErrorIs(t, err, ErrDatosInvalidos)
}

// ── Autorizacion ─────────────────────────────────────────────────────────────

func TestAutorizacion_NoDuenoRecibeAccesoDenegado(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")
	vid := id(t, v)

	_, err := e.svc.ObtenerPorID(e.ctx, e.beto, vid)
	assert.ErrorIs(t, err, ErrAccesoDenegado)
	_, err = e.svc.Actualizar(e.ctx, e.beto, vid, dto.ActualizarVisitaRequest{Ciudad: dto.Con("x")})
	assert.ErrorIs(t, err, ErrAccesoDenegado)
	_, err = e.svc.Rechazar(e.ctx, e.beto, vid, dto.RechazarVisitaRequest{})
	assert.ErrorIs(t, err, ErrAccesoDenegado)
	_, err = e.svc.Aprobar(e.ctx, e.beto, vid, dto.AprobarVisitaRequest{})
	assert.ErrorIs(t, err, ErrAccesoDenegado)
	_, err = e.svc.DatosParaProveedor(e.ctx, e.beto, vid)
	assert.ErrorIs(t, err, ErrAccesoDenegado)
	assert.ErrorIs(t, e.svc.Eliminar(e.ctx, e.beto, vid), ErrAccesoDenegado)

	// nothing changed
	got := e.repo.visitas[vid]
	assert.Equal(t, model.EstadoPendiente, got.Estado)
	assert.Equal(t, "Springfield", *got.Ciudad)
	assert.Empty(t, e.repo.proveedores)
}

func TestAutorizacion_AdminActuaSobreCualquiera(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")

	got, err := e.svc.ObtenerPorID(e.ctx, e.admin, id(t, v))
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)

	_, err = e.svc.Rechazar(e.ctx, e.admin, id(t, v), dto.RechazarVisitaRequest{})
	assert.NoError(t, err)
}

func TestNoEncontradoAntesQueAcceso(t *testing.T) {
	e := nuevoEntorno(t)
	ausente := uuid.New()

	_, err := e.svc.ObtenerPorID(e.ctx, e.beto, ausente)
	assert.ErrorIs(t, err, ErrNoEncontrado)
	_, err = e.svc.Aprobar(e.ctx, e.beto, ausente, dto.AprobarVisitaRequest{})
	assert.ErrorIs(t, err, ErrNoEncontrado)
	assert.ErrorIs(t, e.svc.Eliminar(e.ctx, e.beto, ausente), ErrNoEncontrado)
	assert.ErrorIs(t, e.svc.Eliminar(e.ctx, e.admin, ausente), ErrNoEncontrado)
}

// ── Listar / Estadisticas ────────────────────────────────────────────────────

func TestListar_AlcanceYFiltro(t *testing.T) {
	e := nuevoEntorno(t)
	a1 := e.crear(t, e.ana, "a1")
	e.crear(t, e.ana, "a2")
	e.crear(t, e.beto, "b1")
	_, err := e.svc.Rechazar(e.ctx, e.ana, id(t, a1), dto.RechazarVisitaRequest{})
	require.NoError(t, err)

	deAna, err := e.svc.Listar(e.ctx, e.ana, "")
	require.NoError(t, err)
	assert.Len(t, deAna, 2)
	for _, v := range deAna {
		assert.Equal(t, e.ana.UsuarioID.String(), v.UsuarioID)
	}

	todas, err := e.svc.Listar(e.ctx, e.admin, "")
	require.NoError(t, err)
	assert.Len(t, todas, 3)

	rechazadas, err := e.svc.Listar(e.ctx, e.ana, "rechazada")
	require.NoError(t, err)
	require.Len(t, rechazadas, 1)
	assert.Equal(t, a1.ID, rechazadas[0].ID)

	_, err = e.svc.Listar(e.ctx, e.ana, "borrada")
	assert.ErrorIs(t, err, ErrDatosInvalidos)
}

func TestListar_ErrorAlmacenamiento(t *testing.T) {
	e := nuevoEntorno(t)
	e.repo.errList = errors.New("conexion perdida")
	_, err := e.svc.Listar(e.ctx, e.ana, "")
	assert.ErrorIs(t, err, ErrAlmacenamiento)
	assert.Equal(t, "error interno de almacenamiento", MensajePublico(err, ""))
}

func TestEstadisticas_Alcance(t *testing.T) {
	e := nuevoEntorno(t)
	a1 := e.crear(t, e.ana, "a1")
	a2 := e.crear(t, e.ana, "a2")
	e.crear(t, e.ana, "a3")
	e.crear(t, e.beto, "b1")
	_, err := e.svc.Rechazar(e.ctx, e.ana, id(t, a1), dto.RechazarVisitaRequest{})
	require.NoError(t, err)
	_, err = e.svc.Aprobar(e.ctx, e.ana, id(t, a2), dto.AprobarVisitaRequest{})
	require.NoError(t, err)

	st, err := e.svc.Estadisticas(e.ctx, e.ana)
	require.NoError(t, err)
	assert.Equal(t, dto.EstadisticasResponse{Total: 3, Pendientes: 1, Aprobadas: 1, Rechazadas: 1}, *st)

	st, err = e.svc.Estadisticas(e.ctx, e.admin)
	require.NoError(t, err)
	assert.Equal(t, dto.EstadisticasResponse{Total: 4, Pendientes: 2, Aprobadas: 1, Rechazadas: 1}, *st)
}

// ── Actualizar ───────────────────────────────────────────────────────────────

func TestActualizar_SemanticaDeCampos(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")
	lng := decimal.RequireFromString("-58.3816")

	got, err := e.svc.Actualizar(e.ctx, e.ana, id(t, v), dto.ActualizarVisitaRequest{
		Nombre:    dto.Con(""),              // empty nombre is ignored
		Email:     dto.Nulo[string](),       // explicit null clears
		Telefono:  dto.Con(""),              // empty string is stored as sent
		Provincia: dto.Con("Buenos Aires"),  // value
		Longitud:  dto.Con(lng),
		// Ciudad absent: untouched
	})
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Nombre)
	assert.Nil(t, got.Email)
	require.NotNil(t, got.Telefono)
	assert.Equal(t, "", *got.Telefono)
	assert.Equal(t, "Buenos Aires", *got.Provincia)
	assert.Equal(t, "Springfield", *got.Ciudad)
	require.NotNil(t, got.Longitud)
	assert.True(t, lng.Equal(*got.Longitud))
	assert.Equal(t, "pendiente", got.Estado)
	assert.Equal(t, v.UsuarioID, got.UsuarioID)

	got, err = e.svc.Actualizar(e.ctx, e.ana, id(t, v), dto.ActualizarVisitaRequest{Nombre: dto.Con("Acme SRL")})
	require.NoError(t, err)
	assert.Equal(t, "Acme SRL", got.Nombre)

	got, err = e.svc.Actualizar(e.ctx, e.ana, id(t, v), dto.ActualizarVisitaRequest{Nombre: dto.Nulo[string]()})
	require.NoError(t, err)
	assert.Equal(t, "Acme SRL", got.Nombre)
}

func TestActualizar_VisitaDecididaNoSeEdita(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")
	_, err := e.svc.Aprobar(e.ctx, e.ana, id(t, v), dto.AprobarVisitaRequest{})
	require.NoError(t, err)

	_, err = e.svc.Actualizar(e.ctx, e.ana, id(t, v), dto.ActualizarVisitaRequest{Ciudad: dto.Con("Otra")})
	assert.ErrorIs(t, err, ErrEstadoInvalido)
	assert.Equal(t, msgNoEditable, MensajePublico(err, ""))
	assert.Equal(t, "Springfield", *e.repo.visitas[id(t, v)].Ciudad)
}

func TestActualizar_CoordenadaInvalida(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")
	_, err := e.svc.Actualizar(e.ctx, e.ana, id(t, v), dto.ActualizarVisitaRequest{Longitud: dto.Con(decimal.NewFromInt(200))})
	assert.ErrorIs(t, err, ErrDatosInvalidos)
}

// ── Rechazar ─────────────────────────────────────────────────────────────────

func TestRechazar_UnaSolaVez(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")

	got, err := e.svc.Rechazar(e.ctx, e.ana, id(t, v), dto.RechazarVisitaRequest{Motivo: strp("precio alto")})
	require.NoError(t, err)
	assert.Equal(t, "rechazada", got.Estado)
	assert.Equal(t, "precio alto", *got.MotivoRechazo)
	assert.NotNil(t, got.FechaDecision)
	assert.Nil(t, got.ProveedorID)

	_, err = e.svc.Rechazar(e.ctx, e.ana, id(t, v), dto.RechazarVisitaRequest{Motivo: strp("otra")})
	assert.ErrorIs(t, err, ErrEstadoInvalido)
	assert.Equal(t, msgYaProcesada, MensajePublico(err, ""))
	_, err = e.svc.Aprobar(e.ctx, e.ana, id(t, v), dto.AprobarVisitaRequest{})
	assert.ErrorIs(t, err, ErrEstadoInvalido)
	assert.Empty(t, e.repo.proveedores)
	assert.Equal(t, "precio alto", *e.repo.visitas[id(t, v)].MotivoRechazo)
}

func TestRechazar_SinMotivoGuardaVacio(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")
	got, err := e.svc.Rechazar(e.ctx, e.ana, id(t, v), dto.RechazarVisitaRequest{})
	require.NoError(t, err)
	require.NotNil(t, got.MotivoRechazo)
	assert.Equal(t, "", *got.MotivoRechazo)
}

// ── Aprobar ──────────────────────────────────────────────────────────────────

func TestAprobar_ProveedorDesdeVisita(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")

	resp, err := e.svc.Aprobar(e.ctx, e.ana, id(t, v), dto.AprobarVisitaRequest{})
	require.NoError(t, err)

	p := resp.Proveedor
	assert.Equal(t, "acme", p.Nombre)
	assert.Equal(t, "contacto@acme.test", *p.Email)
	assert.Equal(t, "555-0100", *p.Telefono)
	assert.Equal(t, "Springfield", *p.Ciudad)
	assert.Nil(t, p.Provincia)
	assert.Equal(t, "", p.Calle)
	assert.Equal(t, "", p.Numero)
	assert.Equal(t, "", p.CodigoPostal)
	assert.Equal(t, "", p.Barrio)
	assert.Nil(t, p.CUIT)
	assert.Nil(t, p.DNI)
	assert.Equal(t, model.TipoDocumentoCUIT, p.TipoDocumento)
	assert.Equal(t, e.ana.UsuarioID.String(), p.CompradorResponsableID)
	assert.True(t, p.Activo)

	assert.Equal(t, "aprobada", resp.Visita.Estado)
	require.NotNil(t, resp.Visita.ProveedorID)
	assert.Equal(t, p.ID, *resp.Visita.ProveedorID)
	assert.NotNil(t, resp.Visita.FechaDecision)
	assert.NotEmpty(t, resp.Mensaje)
	assert.Len(t, e.repo.proveedores, 1)
}

func TestAprobar_Sobrescrituras(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")
	comprador := uuid.New()

	resp, err := e.svc.Aprobar(e.ctx, e.admin, id(t, v), dto.AprobarVisitaRequest{
		Nombre:                 dto.Con("Acme SA"),
		Email:                  dto.Nulo[string](),
		Calle:                  dto.Con("Evergreen Terrace"),
		Numero:                 dto.Con("742"),
		CUIT:                   dto.Con("20-12345678-9"),
		TipoDocumento:          dto.Con("DNI"),
		CompradorResponsableID: dto.Con(comprador),
	})
	require.NoError(t, err)
	p := resp.Proveedor
	assert.Equal(t, "Acme SA", p.Nombre)
	assert.Nil(t, p.Email)
	assert.Equal(t, "Springfield", *p.Ciudad)
	assert.Equal(t, "Evergreen Terrace", p.Calle)
	assert.Equal(t, "742", p.Numero)
	assert.Equal(t, "20-12345678-9", *p.CUIT)
	assert.Equal(t, model.TipoDocumentoDNI, p.TipoDocumento)
	assert.Equal(t, comprador.String(), p.CompradorResponsableID)
}

func TestAprobar_NombreVacioUsaElDeLaVisita(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")
	resp, err := e.svc.Aprobar(e.ctx, e.ana, id(t, v), dto.AprobarVisitaRequest{Nombre: dto.Con("  ")})
	require.NoError(t, err)
	assert.Equal(t, "acme", resp.Proveedor.Nombre)

	v2 := e.crear(t, e.ana, "beta")
	resp, err = e.svc.Aprobar(e.ctx, e.ana, id(t, v2), dto.AprobarVisitaRequest{Nombre: dto.Con("")})
	require.NoError(t, err)
	assert.Equal(t, "beta", resp.Proveedor.Nombre)
}

func TestAprobar_TipoDocumentoInvalido(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")
	_, err := e.svc.Aprobar(e.ctx, e.ana, id(t, v), dto.AprobarVisitaRequest{TipoDocumento: dto.Con("pasaporte")})
	assert.ErrorIs(t, err, ErrDatosInvalidos)
	assert.Equal(t, model.EstadoPendiente, e.repo.visitas[id(t, v)].Estado)
	assert.Empty(t, e.repo.proveedores)
}

func TestAprobar_FalloNoDejaRastro(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")
	e.repo.errAprobar = errors.New("deadlock detected")

	_, err := e.svc.Aprobar(e.ctx, e.ana, id(t, v), dto.AprobarVisitaRequest{})
	assert.ErrorIs(t, err, ErrAlmacenamiento)
	assert.NotContains(t, MensajePublico(err, ""), "deadlock")

	got := e.repo.visitas[id(t, v)]
	assert.Equal(t, model.EstadoPendiente, got.Estado)
	assert.Nil(t, got.ProveedorID)
	assert.Nil(t, got.FechaDecision)
	assert.Empty(t, e.repo.proveedores)

	// a later attempt still works
	e.repo.errAprobar = nil
	_, err = e.svc.Aprobar(e.ctx, e.ana, id(t, v), dto.AprobarVisitaRequest{})
	assert.NoError(t, err)
	assert.Len(t, e.repo.proveedores, 1)
}

func TestAprobar_CarreraPerdidaEsEstadoInvalido(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")
	e.repo.errAprobar = repository.ErrEstadoCambiado

	_, err := e.svc.Aprobar(e.ctx, e.ana, id(t, v), dto.AprobarVisitaRequest{})
	assert.ErrorIs(t, err, ErrEstadoInvalido)
}

func TestAprobar_Concurrente_UnaSolaGana(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")
	vid := id(t, v)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = e.svc.Aprobar(e.ctx, e.ana, vid, dto.AprobarVisitaRequest{})
			} else {
				_, errs[i] = e.svc.Rechazar(e.ctx, e.admin, vid, dto.RechazarVisitaRequest{})
			}
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrEstadoInvalido)
	}
	assert.Equal(t, 1, ok)
	final := e.repo.visitas[vid]
	if final.Estado == model.EstadoAprobada {
		assert.Len(t, e.repo.proveedores, 1)
	} else {
		assert.Equal(t, model.EstadoRechazada, final.Estado)
		assert.Empty(t, e.repo.proveedores)
	}
}

// ── DatosParaProveedor / Eliminar ────────────────────────────────────────────

func TestDatosParaProveedor(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")
	_, err := e.svc.Rechazar(e.ctx, e.ana, id(t, v), dto.RechazarVisitaRequest{})
	require.NoError(t, err)

	// available in any state
	d, err := e.svc.DatosParaProveedor(e.ctx, e.ana, id(t, v))
	require.NoError(t, err)
	assert.Equal(t, "acme", d.Nombre)
	assert.Equal(t, "Springfield", *d.Ciudad)
	assert.Equal(t, v.ID, d.VisitaID)
	assert.Equal(t, model.EstadoRechazada, e.repo.visitas[id(t, v)].Estado)
}

func TestEliminar_SoloAdminEnCualquierEstado(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")
	resp, err := e.svc.Aprobar(e.ctx, e.ana, id(t, v), dto.AprobarVisitaRequest{})
	require.NoError(t, err)

	// the owner is not enough
	assert.ErrorIs(t, e.svc.Eliminar(e.ctx, e.ana, id(t, v)), ErrAccesoDenegado)

	require.NoError(t, e.svc.Eliminar(e.ctx, e.admin, id(t, v)))
	_, err = e.svc.ObtenerPorID(e.ctx, e.admin, id(t, v))
	assert.ErrorIs(t, err, ErrNoEncontrado)

	// the supplier survives
	pid, _ := uuid.Parse(resp.Proveedor.ID)
	assert.Contains(t, e.repo.proveedores, pid)
}

func TestErrorLectura_EsAlmacenamiento(t *testing.T) {
	e := nuevoEntorno(t)
	v := e.crear(t, e.ana, "acme")
	e.repo.errFind = errors.New("i/o timeout")
	_, err := e.svc.ObtenerPorID(e.ctx, e.ana, id(t, v))
	assert.ErrorIs(t, err, ErrAlmacenamiento)
	assert.False(t, errors.Is(err, ErrNoEncontrado))
}

// ── Escenario completo ───────────────────────────────────────────────────────

func TestEscenario_AcmeSpringfield(t *testing.T) {
	e := nuevoEntorno(t)

	v, err := e.svc.Crear(e.ctx, e.ana, dto.CrearVisitaRequest{Nombre: "Acme", Email: strp("a@acme.test")})
	require.NoError(t, err)
	vid := id(t, v)

	_, err = e.svc.Actualizar(e.ctx, e.ana, vid, dto.ActualizarVisitaRequest{Ciudad: dto.Con("Springfield")})
	require.NoError(t, err)

	resp, err := e.svc.Aprobar(e.ctx, e.ana, vid, dto.AprobarVisitaRequest{CUIT: dto.Con("30-71234567-1")})
	require.NoError(t, err)
	assert.Equal(t, "Acme", resp.Proveedor.Nombre)
	assert.Equal(t, "a@acme.test", *resp.Proveedor.Email)
	assert.Equal(t, "Springfield", *resp.Proveedor.Ciudad)
	assert.Equal(t, "30-71234567-1", *resp.Proveedor.CUIT)
	assert.Equal(t, "cuit", resp.Proveedor.TipoDocumento)

	_, err = e.svc.Rechazar(e.ctx, e.ana, vid, dto.RechazarVisitaRequest{})
	assert.ErrorIs(t, err, ErrEstadoInvalido)

	got, err := e.svc.ObtenerPorID(e.ctx, e.ana, vid)
	require.NoError(t, err)
	assert.Equal(t, "aprobada", got.Estado)
	assert.Equal(t, resp.Proveedor.ID, *got.ProveedorID)
}
