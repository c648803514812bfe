package domain

import (
	"errors"
	"fmt"
	"strings"
)

type ErrCode string

const (
	CodeValidation ErrCode = "validation_error"
	CodeTransport  ErrCode = "transport_error"
	CodeDelivery   ErrCode = "delivery_failed"
	CodeInternal   ErrCode = "internal_error"
)

// CodeOf returns the code of the outermost coded error in err's chain,
// CodeInternal when there is none.
func CodeOf(err error) ErrCode {
	var coded interface{ Code() ErrCode }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return CodeInternal
}

// Client-facing messages. Provider details never go past these.
const (
	MsgRequiredFields = "Имя и контакт обязательны"
	MsgDeliveryFailed = "mail send failed"
	MsgInvalidJSON    = "invalid JSON body"
)

// ValidationError is returned before any network call when required
// submission fields are missing or blank.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", CodeValidation, e.Message)
	}
	return fmt.Sprintf("%s: %s (fields: %s)", CodeValidation, e.Message, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Code() ErrCode { return CodeValidation }

func ErrRequired(fields ...string) error {
	return &ValidationError{Fields: fields, Message: MsgRequiredFields}
}

// ErrInvalidJSON wraps a body decoding failure as a ValidationError.
func ErrInvalidJSON(cause error) error {
	return fmt.Errorf("%w: %v", &ValidationError{Message: MsgInvalidJSON}, cause)
}

// TransportError is a failed attempt on a single tier.
type TransportError struct {
	Tier      Tier
	Transport string
	Temporary bool
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport %q: %v", e.Tier, e.Transport, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Code() ErrCode { return CodeTransport }

// DeliveryError means every configured tier failed. Fallback is nil when
// only a primary tier is configured.
type DeliveryError struct {
	Primary  *TransportError
	Fallback *TransportError
}

func (e *DeliveryError) Error() string {
	var b strings.Builder
	b.WriteString(string(CodeDelivery))
	if e.Primary != nil {
		b.WriteString(": primary: ")
		b.WriteString(e.Primary.Err.Error())
	}
	if e.Fallback != nil {
		b.WriteString("; fallback: ")
		b.WriteString(e.Fallback.Err.Error())
	}
	return b.String()
}

func (e *DeliveryError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Primary != nil {
		out = append(out, e.Primary)
	}
	if e.Fallback != nil {
		out = append(out, e.Fallback)
	}
	return out
}

func (e *DeliveryError) Code() ErrCode { return CodeDelivery }
