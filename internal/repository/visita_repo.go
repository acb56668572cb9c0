package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/dto"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrEstadoCambiado is returned by the conditional writes when the visit exists
// but is no longer "pendiente" at the moment of the UPDATE.
var ErrEstadoCambiado = errors.New("la visita ya no esta pendiente")

// VisitaRepository defines the data access contract for visits.
// Every write that depends on the visit being pending re-checks the state in the
// same statement (UPDATE ... WHERE estado = 'pendiente'), so two concurrent
// decisions on one visit cannot both commit.
type VisitaRepository interface {
	Create(ctx context.Context, v *model.Visita) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Visita, error)
	List(ctx context.Context, filter dto.VisitaFilter) ([]model.Visita, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// ActualizarCampos writes the given column → value map while the visit is pending.
	ActualizarCampos(ctx context.Context, id uuid.UUID, campos map[string]interface{}) error

	// Rechazar moves a pending visit to "rechazada".
	Rechazar(ctx context.Context, id uuid.UUID, motivo string, fecha time.Time) error

	// CrearProveedorYAprobar inserts p and moves the visit to "aprobada" linked to p,
	// in one transaction. On any error neither write is kept.
	CrearProveedorYAprobar(ctx context.Context, id uuid.UUID, p *model.Proveedor, fecha time.Time) error

	// ContarPorEstado returns visit counts per state; nil usuarioID counts every owner.
	ContarPorEstado(ctx context.Context, usuarioID *uuid.UUID) (map[model.EstadoVisita]int64, error)
}

type visitaRepo struct{ db *gorm.DB }

func NewVisitaRepository(db *gorm.DB) VisitaRepository { return &visitaRepo{db: db} }

func (r *visitaRepo) Create(ctx context.Context, v *model.Visita) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *visitaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Visita, error) {
	var v model.Visita
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	return &v, err
}

func (r *visitaRepo) List(ctx context.Context, filter dto.VisitaFilter) ([]model.Visita, error) {
	var visitas []model.Visita
	q := r.db.WithContext(ctx).Model(&model.Visita{})
	if filter.UsuarioID != nil {
		q = q.Where("usuario_id = ?", *filter.UsuarioID)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	err := q.Order("fecha_visita DESC").Find(&visitas).Error
	return visitas, err
}

func (r *visitaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Visita{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *visitaRepo) ActualizarCampos(ctx context.Context, id uuid.UUID, campos map[string]interface{}) error {
	valores := make(map[string]interface{}, len(campos)+1)
	for k, v := range campos {
		valores[k] = v
	}
	valores["updated_at"] = time.Now().UTC()
	return actualizarPendiente(r.db.WithContext(ctx), id, valores)
}

func (r *visitaRepo) Rechazar(ctx context.Context, id uuid.UUID, motivo string, fecha time.Time) error {
	return actualizarPendiente(r.db.WithContext(ctx), id, map[string]interface{}{
		"estado":         model.EstadoRechazada,
		"fecha_decision": fecha,
		"motivo_rechazo": motivo,
		"updated_at":     fecha,
	})
}

func (r *visitaRepo) CrearProveedorYAprobar(ctx context.Context, id uuid.UUID, p *model.Proveedor, fecha time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return actualizarPendiente(tx, id, map[string]interface{}{
			"estado":         model.EstadoAprobada,
			"fecha_decision": fecha,
			"proveedor_id":   p.ID,
			"updated_at":     fecha,
		})
	})
}

func (r *visitaRepo) ContarPorEstado(ctx context.Context, usuarioID *uuid.UUID) (map[model.EstadoVisita]int64, error) {
	var filas []struct {
		Estado model.EstadoVisita
		Total  int64
	}
	q := r.db.WithContext(ctx).Model(&model.Visita{}).Select("estado, COUNT(*) AS total")
	if usuarioID != nil {
		q = q.Where("usuario_id = ?", *usuarioID)
	}
	if err := q.Group("estado").Scan(&filas).Error; err != nil {
		return nil, err
	}
	conteo := make(map[model.EstadoVisita]int64, len(filas))
	for _, f := range filas {
		conteo[f.Estado] = f.Total
	}
	return conteo, nil
}

// actualizarPendiente is the check-and-set used by every workflow write.
// Zero affected rows means either the visit is gone or it already left "pendiente".
func actualizarPendiente(db *gorm.DB, id uuid.UUID, valores map[string]interface{}) error {
	res := db.Model(&model.Visita{}).
		Where("id = ? AND estado = ?", id, model.EstadoPendiente).
		Updates(valores)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := db.Model(&model.Visita{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return ErrEstadoCambiado
}
