package server

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/drilldown/pkg/errors"
	"github.com/matzehuels/drilldown/pkg/graph"
)

// newValidator returns a validator reporting JSON field names and knowing
// the domain tags groupcolor, flowkind and direction.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("groupcolor", func(fl validator.FieldLevel) bool {
		return errors.ValidateColor(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("flowkind", func(fl validator.FieldLevel) bool {
		return graph.FlowKind(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("direction", func(fl validator.FieldLevel) bool {
		return graph.Direction(fl.Field().String()).Valid()
	})
	return v
}

// validate checks a request body and converts failures to INVALID_INPUT.
func (s *Server) validate(req any) error {
	err := s.validator.Struct(req)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request")
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(errors.ErrCodeInvalidInput, "%s", strings.Join(msgs, "; "))
}

func fieldMessage(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "groupcolor":
		return fmt.Sprintf("%s must be a hex color like #3b82f6", field)
	case "flowkind":
		return fmt.Sprintf("%s must be one of %v", field, graph.FlowKinds)
	case "direction":
		return fmt.Sprintf("%s must be one of %v", field, graph.Directions)
	case "dive":
		return fmt.Sprintf("%s contains invalid values", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
