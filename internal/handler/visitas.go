package handler

import (
	"net/http"

	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/dto"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/service"

	"github.com/gin-gonic/gin"
)

type VisitasHandler struct{ svc service.VisitaService }

func NewVisitasHandler(svc service.VisitaService) *VisitasHandler {
	return &VisitasHandler{svc: svc}
}

// Listar godoc
// @Summary Listar visitas
// @Description Compradores ven sus propias visitas; administradores ven todas.
// @Tags visitas
// @Produce json
// @Param estado query string false "pendiente | aprobada | rechazada"
// @Success 200 {array} dto.VisitaResponse
// @Failure 400 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/visitas [get]
func (h *VisitasHandler) Listar(c *gin.Context) {
	actor, ok := actorDesde(c)
	if !ok {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), actor, c.Query("estado"))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerPorID godoc
// @Summary Obtener una visita
// @Tags visitas
// @Produce json
// @Param id path string true "ID de la visita"
// @Success 200 {object} dto.VisitaResponse
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/visitas/{id} [get]
func (h *VisitasHandler) ObtenerPorID(c *gin.Context) {
	actor, ok := actorDesde(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), actor, id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Crear godoc
// @Summary Registrar una visita
// @Tags visitas
// @Accept json
// @Produce json
// @Param body body dto.CrearVisitaRequest true "Datos de la visita"
// @Success 201 {object} dto.VisitaMensajeResponse
// @Failure 400 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Security BearerAuth
// @Router /v1/visitas [post]
func (h *VisitasHandler) Crear(c *gin.Context) {
	actor, ok := actorDesde(c)
	if !ok {
		return
	}
	var req dto.CrearVisitaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), actor, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.VisitaMensajeResponse{Mensaje: "Visita registrada con exito", Visita: *resp})
}

// Actualizar godoc
// @Summary Editar una visita pendiente
// @Description Solo se aplican las claves presentes; null limpia el campo. nombre vacio se ignora.
// @Tags visitas
// @Accept json
// @Produce json
// @Param id path string true "ID de la visita"
// @Param body body dto.ActualizarVisitaRequest true "Campos a modificar"
// @Success 200 {object} dto.VisitaMensajeResponse
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/visitas/{id} [put]
func (h *VisitasHandler) Actualizar(c *gin.Context) {
	actor, ok := actorDesde(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.ActualizarVisitaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), actor, id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.VisitaMensajeResponse{Mensaje: "Visita actualizada con exito", Visita: *resp})
}

// Rechazar godoc
// @Summary Rechazar una visita pendiente
// @Tags visitas
// @Accept json
// @Produce json
// @Param id path string true "ID de la visita"
// @Param body body dto.RechazarVisitaRequest false "Motivo"
// @Success 200 {object} dto.VisitaMensajeResponse
// @Failure 409 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/visitas/{id}/rechazar [post]
func (h *VisitasHandler) Rechazar(c *gin.Context) {
	actor, ok := actorDesde(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.RechazarVisitaRequest
	if !bindOpcional(c, &req) {
		return
	}
	resp, err := h.svc.Rechazar(c.Request.Context(), actor, id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.VisitaMensajeResponse{Mensaje: "Visita rechazada", Visita: *resp})
}

// Aprobar godoc
// @Summary Aprobar una visita y crear el proveedor
// @Description Crea el proveedor con los datos de la visita (o los enviados) y marca la visita como aprobada, de forma atomica.
// @Tags visitas
// @Accept json
// @Produce json
// @Param id path string true "ID de la visita"
// @Param body body dto.AprobarVisitaRequest false "Datos del proveedor"
// @Success 201 {object} dto.AprobacionResponse
// @Failure 409 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/visitas/{id}/aprobar [post]
func (h *VisitasHandler) Aprobar(c *gin.Context) {
	actor, ok := actorDesde(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.AprobarVisitaRequest
	if !bindOpcional(c, &req) {
		return
	}
	resp, err := h.svc.Aprobar(c.Request.Context(), actor, id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// DatosProveedor godoc
// @Summary Datos de la visita para precargar un proveedor
// @Tags visitas
// @Produce json
// @Param id path string true "ID de la visita"
// @Success 200 {object} dto.DatosProveedorResponse
// @Security BearerAuth
// @Router /v1/visitas/{id}/datos-proveedor [get]
func (h *VisitasHandler) DatosProveedor(c *gin.Context) {
	actor, ok := actorDesde(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.DatosParaProveedor(c.Request.Context(), actor, id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary Eliminar una visita (solo administradores)
// @Tags visitas
// @Produce json
// @Param id path string true "ID de la visita"
// @Success 200 {object} map[string]string
// @Failure 403 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/visitas/{id} [delete]
func (h *VisitasHandler) Eliminar(c *gin.Context) {
	actor, ok := actorDesde(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), actor, id); err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensaje": "Visita eliminada con exito"})
}

// Estadisticas godoc
// @Summary Conteo de visitas por estado
// @Tags visitas
// @Produce json
// @Success 200 {object} dto.EstadisticasResponse
// @Security BearerAuth
// @Router /v1/visitas/estadisticas [get]
func (h *VisitasHandler) Estadisticas(c *gin.Context) {
	actor, ok := actorDesde(c)
	if !ok {
		return
	}
	resp, err := h.svc.Estadisticas(c.Request.Context(), actor)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
