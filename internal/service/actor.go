package service

import (
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/model"

	"github.com/google/uuid"
)

// Actor is the authenticated caller, built from the JWT claims by the handler.
type Actor struct {
	UsuarioID uuid.UUID
	Rol       string
}

func (a Actor) EsAdmin() bool { return a.Rol == model.RolAdministrador }

// puedeActuarSobre: administrators act on any visit, everyone else only on their own.
func (a Actor) puedeActuarSobre(v *model.Visita) bool {
	return a.EsAdmin() || v.UsuarioID == a.UsuarioID
}
