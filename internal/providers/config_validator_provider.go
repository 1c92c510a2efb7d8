package providers

import (
	"chatpulse/internal/structures"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

// Validate checks every tagged config section. Sections are validated
// one by one so the first broken section reports its own field errors.
func (cv *CnfValidator) Validate() error {
	sections := []interface{}{
		&cv.conf.WebServer,
		&cv.conf.Persistence,
		&cv.conf.Tracker,
		&cv.conf.Logger,
	}
	for _, section := range sections {
		v := validate.Struct(section)
		if !v.Validate() {
			return v.Errors
		}
	}
	return nil
}
