package repository

import (
	"context"

	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProveedorRepository is read-only: suppliers are only ever inserted by
// VisitaRepository.CrearProveedorYAprobar, inside the approval transaction.
type ProveedorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Proveedor, error)
	List(ctx context.Context, compradorID *uuid.UUID) ([]model.Proveedor, error)
}

type proveedorRepo struct{ db *gorm.DB }

func NewProveedorRepository(db *gorm.DB) ProveedorRepository { return &proveedorRepo{db: db} }

func (r *proveedorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Proveedor, error) {
	var p model.Proveedor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	return &p, err
}

func (r *proveedorRepo) List(ctx context.Context, compradorID *uuid.UUID) ([]model.Proveedor, error) {
	var proveedores []model.Proveedor
	q := r.db.WithContext(ctx).Where("activo = ?", true)
	if compradorID != nil {
		q = q.Where("comprador_responsable_id = ?", *compradorID)
	}
	err := q.Order("nombre").Find(&proveedores).Error
	return proveedores, err
}
