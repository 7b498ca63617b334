package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"kioskpos/internal/apierror"
	"kioskpos/internal/order"
	"kioskpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that tags like required and
	// min work on prices without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Report fields under their JSON names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}

// bindAndValidate binds the JSON body and runs the validator tags.
// Returns false after writing a 400; the caller must return immediately.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.Field("body", "Corps de requête JSON invalide"))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.Field("body", err.Error()))
			return false
		}
		fields := make([]apierror.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apierror.FieldError{Field: fieldPath(fe), Message: validationMessage(fe)})
		}
		c.JSON(http.StatusBadRequest, apierror.NewValidation(fields...))
		return false
	}
	return true
}

// fieldPath drops the root struct name: "CreateOrderRequest.items[0].price" -> "items[0].price".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Ce champ est requis"
	case "email":
		return "Email invalide"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Doit contenir au moins %s caractères", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Doit contenir au moins %s élément(s)", fe.Param())
		}
		return fmt.Sprintf("Doit être supérieur ou égal à %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Doit contenir au plus %s caractères", fe.Param())
		}
		return fmt.Sprintf("Doit être inférieur ou égal à %s", fe.Param())
	case "oneof":
		return "Valeur invalide, attendue : " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "Valeur invalide"
	}
}

// parseID reads a uuid path parameter. A malformed id cannot match any record,
// so it is reported as not found.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(service.ErrNotFound.Error()))
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps service and domain errors to responses. Anything
// unrecognised goes to the ErrorHandler middleware as a 500.
func handleServiceError(c *gin.Context, err error) {
	var fe *service.FieldError
	switch {
	case errors.As(err, &fe):
		c.JSON(http.StatusBadRequest, apierror.Field(fe.Field, fe.Message))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, order.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.Is(err, order.ErrTransitionForbidden):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case errors.Is(err, service.ErrNumberingConflict):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
	}
}
