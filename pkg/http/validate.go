package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

// newValidator reports fields by the name the client sent them under.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "param"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// ReadAndValidateRequest binds req, fills defaults and validates it. Failures
// come back as field errors shaped like the ones inbound signal validation
// produces; nil means req is usable.
func ReadAndValidateRequest(c echo.Context, req interface{}) []*AppError {
	if err := c.Bind(req); err != nil {
		return fieldErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return fieldErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return fieldErrors(err)
	}
	return nil
}

func fieldErrors(err error) []*AppError {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		out := make([]*AppError, 0, len(ves))
		for _, fe := range ves {
			out = append(out, FieldError(fe.Field(), reason(fe)).WithParam("rule", fe.Tag()))
		}
		return out
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []*AppError{FieldError("body", fmt.Sprintf("body is malformed: %v", he.Message))}
	}
	return []*AppError{FieldError("", err.Error())}
}

// reason phrases a rule failure the way domain validation does: "<field> <problem>".
func reason(fe validator.FieldError) string {
	field, p := fe.Field(), fe.Param()
	str := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(p, " ", ", "))
	case "min", "gte":
		if str {
			return fmt.Sprintf("%s must be at least %s characters", field, p)
		}
		return fmt.Sprintf("%s must be at least %s", field, p)
	case "max", "lte":
		if str {
			return fmt.Sprintf("%s must be at most %s characters", field, p)
		}
		return fmt.Sprintf("%s must be at most %s", field, p)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, p)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, p)
	default:
		return fmt.Sprintf("%s fails the %s rule", field, fe.Tag())
	}
}
