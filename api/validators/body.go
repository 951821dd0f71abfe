package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
)

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 1 << 20

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}()

// tagMessages renders a failed rule; %s receives the rule parameter.
var tagMessages = map[string]string{
	"required": "is required",
	"min":      "must be at least %s",
	"max":      "must be at most %s",
	"gt":       "must be greater than %s",
	"gte":      "must be greater than or equal to %s",
	"lte":      "must be less than or equal to %s",
	"len":      "must be exactly %s characters",
	"oneof":    "must be one of: %s",
	"email":    "must be a valid email",
	"url":      "must be a valid url",
	"uuid":     "must be a valid uuid",
}

// DecodeJSONBody decodes a strict JSON body into dest and runs struct validation.
func DecodeJSONBody(r *http.Request, dest any) error {
	return decode(r, dest, false)
}

// DecodeOptionalJSONBody behaves like DecodeJSONBody but leaves dest untouched
// when the request carries no body.
func DecodeOptionalJSONBody(r *http.Request, dest any) error {
	return decode(r, dest, true)
}

// ValidateStruct runs the shared validator against an already-populated value.
func ValidateStruct(dest any) error {
	err := validate.Struct(dest)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = describe(fe)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}

func decode(r *http.Request, dest any, optional bool) error {
	if r.Body == nil || r.Body == http.NoBody {
		if optional {
			return ValidateStruct(dest)
		}
		return bodyError(io.EOF)
	}
	defer io.Copy(io.Discard, r.Body)

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	err := dec.Decode(dest)
	switch {
	case errors.Is(err, io.EOF) && optional:
		return ValidateStruct(dest)
	case err != nil:
		return bodyError(err)
	case dec.More():
		return bodyError(errors.New("unexpected data after JSON object"))
	}
	return ValidateStruct(dest)
}

func bodyError(err error) error {
	msg := err.Error()
	if errors.Is(err, io.EOF) {
		msg = "request body is empty"
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": msg})
}

func describe(fe validator.FieldError) string {
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, fe.Param())
	}
	return msg
}
