package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/wims/backend/internal/interfaces/http/dto"
)

// SetupValidator makes binding errors name fields by their json tag, or
// their form tag for query structs
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			switch name, _, _ := strings.Cut(fld.Tag.Get(tag), ","); name {
			case "-":
				return ""
			case "":
			default:
				return name
			}
		}
		return ""
	})
}

// ValidationFields converts validator errors into per-field details, nil
// when err is not a validator error
func ValidationFields(err error) []dto.FieldDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]dto.FieldDetail, len(verrs))
	for i, e := range verrs {
		fields[i] = dto.FieldDetail{Field: fieldPath(e), Message: message(e), Code: code(e)}
	}
	return fields
}

// HandleValidationError writes the 400 envelope listing every invalid field
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed", GetRequestID(c), ValidationFields(err)))
}

// fieldPath drops the struct name: CreateOrderRequest.items[0].quantity
// becomes items[0].quantity
func fieldPath(e validator.FieldError) string {
	if _, rest, ok := strings.Cut(e.Namespace(), "."); ok {
		return rest
	}
	return e.Field()
}

func code(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return dto.ErrCodeValidationRequired
	case "len":
		return dto.ErrCodeValidationLength
	case "min", "max", "gte", "lte", "gt", "lt":
		if e.Kind() == reflect.String {
			return dto.ErrCodeValidationLength
		}
		return dto.ErrCodeValidationRange
	}
	return dto.ErrCodeValidationFormat
}

var comparisons = map[string]string{
	"gte": "Must be greater than or equal to ",
	"lte": "Must be less than or equal to ",
	"gt":  "Must be greater than ",
	"lt":  "Must be less than ",
}

func message(e validator.FieldError) string {
	p := e.Param()
	if prefix, ok := comparisons[e.Tag()]; ok {
		return prefix + p
	}
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "uuid", "uuid4":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + p
	case "len":
		return "Must be exactly " + p + " characters"
	case "min", "max":
		bound := "at least "
		if e.Tag() == "max" {
			bound = "at most "
		}
		switch e.Kind() {
		case reflect.String:
			return "Must be " + bound + p + " characters"
		case reflect.Slice:
			return "Must contain " + bound + p + " item(s)"
		}
		return "Must be " + bound + p
	}
	return "Invalid value"
}
