// Package apperror builds the request validator and maps its errors into
// field messages for API responses.
package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/xavierca1/beauty-leads/internal/entity"
)

var (
	errRequired       = errors.New("is required")
	errTooLong        = errors.New("is too long")
	errInvalidSource  = errors.New("must be one of the known lead sources")
	errInvalidStatus  = errors.New("must be one of the known lead statuses")
	errInvalidInquiry = errors.New("must be one of the known inquiry types")
	errMalformedBody  = errors.New("request body is not valid JSON")
)

var tagErrors = map[string]error{
	"required":     errRequired,
	"max":          errTooLong,
	"lead_source":  errInvalidSource,
	"lead_status":  errInvalidStatus,
	"lead_inquiry": errInvalidInquiry,
}

// NewValidator returns a validator with the lead enum tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("lead_source", func(fl validator.FieldLevel) bool {
		return entity.Source(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("lead_status", func(fl validator.FieldLevel) bool {
		return entity.Status(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("lead_inquiry", func(fl validator.FieldLevel) bool {
		return entity.InquiryType(fl.Field().String()).Valid()
	})
	return v
}

// CustomValidationError converts validator and JSON decoding errors into
// a list of {field: message} pairs.
func CustomValidationError(err error) []map[string]string {
	errList := make([]map[string]string, 0)

	var (
		validationErr validator.ValidationErrors
		syntaxErr     *json.SyntaxError
		typeErr       *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &validationErr):
		for _, e := range validationErr {
			msg := fmt.Sprintf("%s is invalid", e.Field())
			if v, ok := tagErrors[e.Tag()]; ok {
				msg = v.Error()
			}
			errList = append(errList, map[string]string{e.Field(): msg})
		}
	case errors.As(err, &typeErr):
		errList = append(errList, map[string]string{typeErr.Field: fmt.Sprintf("must be %s", typeErr.Type)})
	case errors.As(err, &syntaxErr):
		errList = append(errList, map[string]string{"body": errMalformedBody.Error()})
	case err != nil:
		errList = append(errList, map[string]string{"body": err.Error()})
	}
	return errList
}
