package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// ReadAndValidateRequest binds the request body into req, applies struct
// defaults and validates. Returns nil on success, or a value suitable for
// BadRequestResponse ([]ValidationError).
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return asValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return asValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return asValidationErrors(err)
	}
	return nil
}

func asValidationErrors(err error) interface{} {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			msg, params := describeFieldError(fe)
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: msg,
				Params:  params,
			})
		}
		return out
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: fmt.Sprintf("%v", he.Message)}}
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
}

func describeFieldError(fe validator.FieldError) (string, map[string]interface{}) {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field), nil
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, param),
			map[string]interface{}{"min": param}
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, param),
			map[string]interface{}{"max": param}
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param),
			map[string]interface{}{"value": param}
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param),
			map[string]interface{}{"value": param}
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", ")),
			map[string]interface{}{"options": strings.Split(param, " ")}
	case "datetime":
		return fmt.Sprintf("%s must match layout %s", field, param),
			map[string]interface{}{"layout": param}
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag()), nil
	}
}
