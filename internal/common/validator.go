package common

import (
	"github.com/go-playground/validator"
)

// GenericEchoValidator adapts go-playground/validator to echo's Validator
// interface. It returns the raw validation error; handlers decide the
// response shape.
type GenericEchoValidator struct {
	Validator *validator.Validate
}

func (gv *GenericEchoValidator) Validate(i interface{}) error {
	if gv.Validator == nil {
		gv.Validator = validator.New()
	}
	return gv.Validator.Struct(i)
}
