package validation

import "unicode/utf8"

// FieldError describe un campo inválido y envuelve el error sentinel del dominio
// (p.ej. substances.ErrInvalidInput), para que errors.Is siga funcionando.
type FieldError struct {
	Field string
	Msg   string
	kind  error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Msg
}

func (e *FieldError) Unwrap() error { return e.kind }

func Field(kind error, field, msg string) error {
	return &FieldError{Field: field, Msg: msg, kind: kind}
}

// Length valida longitud en runas (no bytes), con min/max inclusivos.
// max <= 0 significa sin tope.
func Length(kind error, field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min {
		if min == 1 {
			return Field(kind, field, "required")
		}
		return Field(kind, field, "too short")
	}
	if max > 0 && n > max {
		return Field(kind, field, "too long")
	}
	return nil
}
