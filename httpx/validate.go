package httpx

import (
	"io"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	return validate
}

// DecodeValid decodes a JSON body into v and checks its validate tags.
func DecodeValid(r io.Reader, v any) error {
	if err := render.DecodeJSON(r, v); err != nil {
		return err
	}
	return validate.Struct(v)
}
