package service

import "errors"

// Error kinds. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrDatosInvalidos = errors.New("datos invalidos")
	ErrNoEncontrado   = errors.New("no encontrado")
	ErrAccesoDenegado = errors.New("acceso denegado")
	ErrEstadoInvalido = errors.New("estado invalido")
	ErrAlmacenamiento = errors.New("error de almacenamiento")
)

// Error carries one of the kinds above plus a message safe to show to the client.
// Causa, when set, is the underlying error and is never rendered.
type Error struct {
	Tipo    error
	Mensaje string
	Causa   error
}

func (e *Error) Error() string {
	if e.Causa != nil {
		return e.Mensaje + ": " + e.Causa.Error()
	}
	return e.Mensaje
}

// Is matches the kind, so errors.Is(err, ErrNoEncontrado) works on any *Error.
func (e *Error) Is(target error) bool { return e.Tipo == target }

func (e *Error) Unwrap() error { return e.Causa }

func datosInvalidos(msg string) error { return &Error{Tipo: ErrDatosInvalidos, Mensaje: msg} }
func noEncontrado(msg string) error   { return &Error{Tipo: ErrNoEncontrado, Mensaje: msg} }
func accesoDenegado(msg string) error { return &Error{Tipo: ErrAccesoDenegado, Mensaje: msg} }
func estadoInvalido(msg string) error { return &Error{Tipo: ErrEstadoInvalido, Mensaje: msg} }

func almacenamiento(causa error) error {
	return &Error{Tipo: ErrAlmacenamiento, Mensaje: "error interno de almacenamiento", Causa: causa}
}

// MensajePublico returns the client-facing message of err, or fallback when err
// is not a service error.
func MensajePublico(err error, fallback string) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Mensaje
	}
	return fallback
}
