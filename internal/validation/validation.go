// Package validation holds input rules shared by services and handlers.
package validation

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Username reports an error unless name is one or more ASCII letters or digits.
func Username(name string) error {
	return validate.Var(name, "required,alphanum")
}

// GameID reports an error unless id is positive.
func GameID(id int) error {
	return validate.Var(id, "gt=0")
}
