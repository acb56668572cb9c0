package dto

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProveedorResponse struct {
	ID                     string  `json:"id"`
	Nombre                 string  `json:"nombre"`
	Email                  *string `json:"email"`
	Telefono               *string `json:"telefono"`
	Ciudad                 *string `json:"ciudad"`
	Provincia              *string `json:"provincia"`
	Calle                  string  `json:"calle"`
	Numero                 string  `json:"numero"`
	CodigoPostal           string  `json:"codigo_postal"`
	Barrio                 string  `json:"barrio"`
	CUIT                   *string `json:"cuit"`
	DNI                    *string `json:"dni"`
	TipoDocumento          string  `json:"tipo_documento"`
	Observaciones          *string `json:"observaciones"`
	CompradorResponsableID string  `json:"comprador_responsable_id"`
	Activo                 bool    `json:"activo"`
	CreatedAt              string  `json:"created_at"`
}
