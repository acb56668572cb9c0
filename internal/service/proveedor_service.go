package service

import (
	"context"
	"errors"
	"time"

	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/dto"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/model"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProveedorService exposes suppliers read-only; they are created by VisitaService.Aprobar.
type ProveedorService interface {
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProveedorResponse, error)
	Listar(ctx context.Context, compradorID *uuid.UUID) ([]dto.ProveedorResponse, error)
}

type proveedorService struct {
	repo repository.ProveedorRepository
}

func NewProveedorService(repo repository.ProveedorRepository) ProveedorService {
	return &proveedorService{repo: repo}
}

func (s *proveedorService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProveedorResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, noEncontrado("Proveedor no encontrado")
		}
		log.Error().Err(err).Str("proveedor_id", id.String()).Msg("error leyendo proveedor")
		return nil, almacenamiento(err)
	}
	resp := proveedorToResponse(p)
	return &resp, nil
}

func (s *proveedorService) Listar(ctx context.Context, compradorID *uuid.UUID) ([]dto.ProveedorResponse, error) {
	proveedores, err := s.repo.List(ctx, compradorID)
	if err != nil {
		log.Error().Err(err).Msg("error listando proveedores")
		return nil, almacenamiento(err)
	}
	resp := make([]dto.ProveedorResponse, len(proveedores))
	for i := range proveedores {
		resp[i] = proveedorToResponse(&proveedores[i])
	}
	return resp, nil
}

func proveedorToResponse(p *model.Proveedor) dto.ProveedorResponse {
	return dto.ProveedorResponse{
		ID:                     p.ID.String(),
		Nombre:                 p.Nombre,
		Email:                  p.Email,
		Telefono:               p.Telefono,
		Ciudad:                 p.Ciudad,
		Provincia:              p.Provincia,
		Calle:                  p.Calle,
		Numero:                 p.Numero,
		CodigoPostal:           p.CodigoPostal,
		Barrio:                 p.Barrio,
		CUIT:                   p.CUIT,
		DNI:                    p.DNI,
		TipoDocumento:          p.TipoDocumento,
		Observaciones:          p.Observaciones,
		CompradorResponsableID: p.CompradorResponsableID.String(),
		Activo:                 p.Activo,
		CreatedAt:              p.CreatedAt.Format(time.RFC3339),
	}
}
