package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes caps the size of a JSON request body.
const MaxBodyBytes = 1 << 20

// ErrEmptyBody is returned by DecodeJSON for a request without a body.
var ErrEmptyBody = errors.New("request body is empty")

// Validate is the shared validator instance for request structs.
var Validate = validator.New()

// DecodeJSON decodes the request body into v. Trailing data after the first
// JSON value is rejected.
func DecodeJSON(r *http.Request, v interface{}) error {
	return decode(r, v, false)
}

// DecodeDocument decodes a free-form JSON body. Numbers are kept as
// json.Number so integers beyond float64 precision pass through unchanged.
// A JSON null body yields a nil map.
func DecodeDocument(r *http.Request) (map[string]any, error) {
	var doc map[string]any
	if err := decode(r, &doc, true); err != nil {
		return nil, err
	}
	return doc, nil
}

func decode(r *http.Request, v interface{}, useNumber bool) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if useNumber {
		dec.UseNumber()
	}
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON body")
	}
	return nil
}

// ValidateRequest validates the given struct using the validator package.
func ValidateRequest(v interface{}) error {
	if validator, ok := v.(interface{ Validate() error }); ok {
		return validator.Validate()
	}
	return Validate.Struct(v)
}
