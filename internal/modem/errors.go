//
//
package modem

import (
	"errors"
	"fmt"
	"strings"
)

// Normalized request failures.
var (
	ErrRadioNotAvailable     = errors.New("RADIO_NOT_AVAILABLE")
	ErrOpNotAllowedBeforeReg = errors.New("OP_NOT_ALLOWED_BEFORE_REG_NW")
	ErrRequestNotSupported   = errors.New("REQUEST_NOT_SUPPORTED")
	ErrGenericFailure        = errors.New("GENERIC_FAILURE")
)

// FailureMap lists the tokens one modem family uses for each failure class.
type FailureMap struct {
	NotAvailable []string // Tokens that map to RADIO_NOT_AVAILABLE
	NotAllowed   []string // Tokens that map to OP_NOT_ALLOWED_BEFORE_REG_NW
	NotSupported []string // Tokens that map to REQUEST_NOT_SUPPORTED
}

// FailureMappings holds the token tables per modem family. Unknown families
// fall back to "generic"; unknown tokens map to GENERIC_FAILURE.
var FailureMappings = map[string]FailureMap{
	"ril": {
		NotAvailable: []string{
			"RADIO_NOT_AVAILABLE",
			"RADIO_UNAVAILABLE",
			"MODEM_RESET",
			"MODEM_ERR",
		},
		NotAllowed: []string{
			"OP_NOT_ALLOWED_BEFORE_REG_NW",
			"OP_NOT_ALLOWED_DURING_VOICE_CALL",
			"SUBSCRIPTION_NOT_AVAILABLE",
		},
		NotSupported: []string{
			"REQUEST_NOT_SUPPORTED",
			"MODE_NOT_SUPPORTED",
		},
	},
	"generic": {
		NotAvailable: []string{
			"NOT_AVAILABLE",
			"UNAVAILABLE",
			"OFFLINE",
			"NO_RADIO",
			"CONNECTION_RESET",
		},
		NotAllowed: []string{
			"NOT_ALLOWED",
			"NOT_REGISTERED",
		},
		NotSupported: []string{
			"NOT_SUPPORTED",
			"UNSUPPORTED",
		},
	},
}

// ModemError keeps the modem's own failure next to its normalized class.
type ModemError struct {
	Code     error       // Normalized class
	Original error       // Modem failure
	Details  interface{} // Raw reply payload, if any
}

func (e *ModemError) Error() string {
	return fmt.Sprintf("%v (modem: %v)", e.Code, e.Original)
}

func (e *ModemError) Unwrap() error {
	return e.Code
}

// NormalizeFailure maps err onto the normalized classes using the generic table.
func NormalizeFailure(err error, payload interface{}) error {
	return NormalizeFailureWithFamily(err, payload, "generic")
}

// NormalizeFailureWithFamily maps err using the table for the given modem family.
// Errors already carrying a normalized class keep it.
func NormalizeFailureWithFamily(err error, payload interface{}, family string) error {
	if err == nil {
		return nil
	}

	var me *ModemError
	if errors.As(err, &me) {
		return err
	}

	code := classOf(err)
	if code == nil {
		code = mapFailureToCode(err.Error(), family)
	}

	return &ModemError{
		Code:     code,
		Original: err,
		Details:  payload,
	}
}

// IsRadioNotAvailable reports whether err means the radio went away.
func IsRadioNotAvailable(err error) bool {
	return errors.Is(err, ErrRadioNotAvailable)
}

func classOf(err error) error {
	for _, sentinel := range []error{ErrRadioNotAvailable, ErrOpNotAllowedBeforeReg, ErrRequestNotSupported, ErrGenericFailure} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

func mapFailureToCode(msg string, family string) error {
	m, ok := FailureMappings[family]
	if !ok {
		m = FailureMappings["generic"]
	}

	upper := strings.ToUpper(msg)

	for _, token := range m.NotAvailable {
		if strings.Contains(upper, token) {
			return ErrRadioNotAvailable
		}
	}
	for _, token := range m.NotAllowed {
		if strings.Contains(upper, token) {
			return ErrOpNotAllowedBeforeReg
		}
	}
	for _, token := range m.NotSupported {
		if strings.Contains(upper, token) {
			return ErrRequestNotSupported
		}
	}

	return ErrGenericFailure
}
