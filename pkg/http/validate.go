package http

import (
	"errors"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/labstack/echo/v4"

	"EVDemand/pkg/validate"
)

// BindRequest binds the request and applies default tags without validating.
// Used where validation belongs to a deeper layer.
func BindRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return bindErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return bindErrors(err)
	}
	return nil
}

// ReadAndValidateRequest binds, applies defaults and validates req.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	if errs := BindRequest(c, req); errs != nil {
		return errs
	}
	return validate.Struct(c.Request().Context(), req)
}

func bindErrors(err error) []ValidationError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{
			Code:    "ERR_BIND",
			Message: fmt.Sprintf("%v", he.Message),
		}}
	}
	return validate.Translate(err)
}
