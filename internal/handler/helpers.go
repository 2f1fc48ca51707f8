package handler

import (
	"errors"
	"net/http"
	"reflect"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/apierror"
	"github.com/darielruizg/Puntodeventa/internal/model"
	"github.com/darielruizg/Puntodeventa/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
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

// responderError maps service errors to HTTP. Anything unrecognised is left
// on the context for middleware.ErrorHandler, which logs it and answers 500.
func responderError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(ve.Fields))
	case errors.Is(err, service.ErrNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrCredenciales):
		c.JSON(http.StatusUnauthorized, apierror.New("Credenciales invalidas"))
	default:
		_ = c.Error(err)
	}
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// paramFecha reads a YYYY-MM-DD path segment, or "hoy", as a local day.
func paramFecha(c *gin.Context, name string, loc *time.Location) (time.Time, bool) {
	raw := c.Param(name)
	if raw == "hoy" {
		return time.Now().In(loc), true
	}
	dia, err := time.ParseInLocation(model.FormatoFecha, raw, loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Fecha invalida, use AAAA-MM-DD"))
		return time.Time{}, false
	}
	return dia, true
}
