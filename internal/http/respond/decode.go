package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMalformed marks request bodies that are not valid JSON for the target type.
var ErrMalformed = errors.New("malformed request body")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// Validate checks the struct's validate tags.
func Validate(v any) error {
	return validate.Struct(v)
}

// Decode reads a JSON body into v and validates it. An empty body decodes as {}.
func Decode(r *http.Request, v any) error {
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}

	return Validate(v)
}
