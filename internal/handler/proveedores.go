package handler

import (
	"net/http"

	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/apierror"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProveedoresHandler struct{ svc service.ProveedorService }

func NewProveedoresHandler(svc service.ProveedorService) *ProveedoresHandler {
	return &ProveedoresHandler{svc: svc}
}

// Listar godoc
// @Summary Listar proveedores activos
// @Tags proveedores
// @Produce json
// @Param comprador_id query string false "Filtrar por comprador responsable"
// @Success 200 {array} dto.ProveedorResponse
// @Security BearerAuth
// @Router /v1/proveedores [get]
func (h *ProveedoresHandler) Listar(c *gin.Context) {
	var compradorID *uuid.UUID
	if raw := c.Query("comprador_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("comprador_id invalido"))
			return
		}
		compradorID = &id
	}
	resp, err := h.svc.Listar(c.Request.Context(), compradorID)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerPorID godoc
// @Summary Obtener un proveedor
// @Tags proveedores
// @Produce json
// @Param id path string true "ID del proveedor"
// @Success 200 {object} dto.ProveedorResponse
// @Failure 404 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/proveedores/{id} [get]
func (h *ProveedoresHandler) ObtenerPorID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
