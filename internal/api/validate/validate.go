// Package validate decodes JSON request bodies and enforces their struct
// tags, turning violations into model.ErrValidation hard failures.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/apedley/SparkyFitness/internal/model"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// Report wire field names, not Go field names.
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

// Body decodes r's JSON body into dst and validates it.
func Body(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json body", model.ErrValidation)
	}
	return Struct(dst)
}

// Struct validates dst against its validate tags.
func Struct(dst any) error {
	err := v.Struct(dst)
	if err == nil {
		return nil
	}
	var violations validator.ValidationErrors
	if !errors.As(err, &violations) || len(violations) == 0 {
		return fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	fe := violations[0]
	if fe.Tag() == "required" {
		return fmt.Errorf("%w: %s is required", model.ErrValidation, fe.Field())
	}
	return fmt.Errorf("%w: %s failed %s constraint", model.ErrValidation, fe.Field(), fe.Tag())
}
