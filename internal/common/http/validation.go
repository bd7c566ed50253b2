package http

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	commonerrors "github.com/routeledger/backend/internal/common/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var ErrValidationFailed = commonerrors.NewDomainError(
	CodeValidationFailed,
	commonerrors.CategoryValidation,
	"validation failed",
)

var ErrInvalidJSON = commonerrors.NewDomainError(
	CodeInvalidJSON,
	commonerrors.CategoryValidation,
	"invalid JSON payload",
)

var ErrPayloadTooLarge = commonerrors.NewDomainError(
	CodePayloadTooLarge,
	commonerrors.CategoryValidation,
	"request body too large",
)

// ValidateStruct runs struct tag validation and reports failing fields as
// details keyed by their JSON name.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrValidationFailed.WithCause(err)
	}

	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return ErrValidationFailed.WithDetails(details)
}

// DecodeAndValidate decodes a JSON body into v and validates it. An empty
// body decodes into the zero value.
func DecodeAndValidate(r *http.Request, v any) error {
	if r.Body != nil && r.Body != http.NoBody {
		if err := DecodeJSON(r, v); err != nil && !errors.Is(err, io.EOF) {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return ErrPayloadTooLarge.WithCause(err)
			}
			return ErrInvalidJSON.WithCause(err)
		}
	}
	return ValidateStruct(v)
}
