package dto

import (
	"bytes"
	"encoding/json"
)

// Opcional distinguishes the three states of a JSON key in a partial update:
// absent (Presente=false), explicit null (Presente=true, Valor=nil) and a value.
//
// encoding/json only calls UnmarshalJSON for keys that appear in the document,
// so a zero Opcional always means "not sent".
type Opcional[T any] struct {
	Presente bool
	Valor    *T
}

func (o *Opcional[T]) UnmarshalJSON(data []byte) error {
	o.Presente = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Valor = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Valor = &v
	return nil
}

func (o Opcional[T]) MarshalJSON() ([]byte, error) {
	if o.Valor == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Valor)
}

// Con builds a present Opcional holding v.
func Con[T any](v T) Opcional[T] { return Opcional[T]{Presente: true, Valor: &v} }

// Nulo builds a present Opcional holding an explicit null.
func Nulo[T any]() Opcional[T] { return Opcional[T]{Presente: true} }

// O returns the value when present and non-null, otherwise def.
func (o Opcional[T]) O(def T) T {
	if o.Presente && o.Valor != nil {
		return *o.Valor
	}
	return def
}
