package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TipoDocumento: "cuit" (persona juridica) | "dni" (persona fisica)
const (
	TipoDocumentoCUIT = "cuit"
	TipoDocumentoDNI  = "dni"
)

// Proveedor represents a supplier. Rows are only ever inserted by the approval
// of a Visita; the Visita keeps the reference, the Proveedor does not point back.
type Proveedor struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre        string    `gorm:"not null"`
	Email         *string
	Telefono      *string
	Ciudad        *string
	Provincia     *string
	Calle         string `gorm:"not null;default:''"`
	Numero        string `gorm:"not null;default:''"`
	CodigoPostal  string `gorm:"not null;default:''"`
	Barrio        string `gorm:"not null;default:''"`
	CUIT          *string `gorm:"column:cuit"`
	DNI           *string `gorm:"column:dni"`
	TipoDocumento string  `gorm:"type:varchar(10);not null;default:'cuit'"`
	Observaciones *string
	// CompradorResponsableID defaults to the user that approved the visit.
	CompradorResponsableID uuid.UUID `gorm:"type:uuid;not null;index"`
	Activo                 bool      `gorm:"not null;default:true"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (Proveedor) TableName() string { return "proveedores" }

func (p *Proveedor) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TipoDocumentoValido reports whether t is a known document discriminator.
func TipoDocumentoValido(t string) bool {
	return t == TipoDocumentoCUIT || t == TipoDocumentoDNI
}
