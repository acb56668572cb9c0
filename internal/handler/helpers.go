package handler

import (
	"errors"
	"io"
	"net/http"
	"reflect"

	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/apierror"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/middleware"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// gte/lte work on coordinates instead of panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validar(c, req)
}

// bindOpcional is bindAndValidate for endpoints whose body may be omitted
// entirely (reject / approve): an empty body means "no overrides".
func bindOpcional(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validar(c, req)
}

func validar(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// parseID reads the :id path param; writes 400 and returns false when malformed.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// actorDesde builds the caller identity from the JWT claims.
func actorDesde(c *gin.Context) (service.Actor, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
		return service.Actor{}, false
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
		return service.Actor{}, false
	}
	return service.Actor{UsuarioID: uid, Rol: claims.Rol}, true
}

// responderError maps service error kinds to HTTP status codes. Storage
// failures are answered with a generic message; the cause was already logged.
func responderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrDatosInvalidos):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNoEncontrado):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrAccesoDenegado):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrEstadoInvalido):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		rid := c.GetString(middleware.RequestIDKey)
		log.Error().Err(err).Str("request_id", rid).Str("path", c.FullPath()).Msg("error interno")
		c.JSON(status, apierror.Interno(rid))
		return
	}
	c.JSON(status, apierror.New(service.MensajePublico(err, err.Error())))
}
