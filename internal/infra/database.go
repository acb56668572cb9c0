package infra

import (
	"fmt"
	"time"

	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx.
// Schema management is separate (RunMigrations) so the server can start
// against a database migrated out of band.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// RunMigrations creates / updates the tables from the models, then applies the
// idempotent SQL patches AutoMigrate cannot express.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Proveedor{},
		&model.Visita{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs PostgreSQL DDL that GORM does not generate. Each
// statement is guarded so re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// the list/estadisticas queries for a buyer only touch pending rows most of the time
		{"partial index visitas pendientes", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_visitas_pendientes_usuario') THEN
    CREATE INDEX idx_visitas_pendientes_usuario
        ON visitas (usuario_id, fecha_visita DESC)
        WHERE estado = 'pendiente';
  END IF;
END $$`},
		{"check estado visitas", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_visitas_estado') THEN
    ALTER TABLE visitas
      ADD CONSTRAINT chk_visitas_estado CHECK (estado IN ('pendiente', 'aprobada', 'rechazada'));
  END IF;
END $$`},
		// proveedor_id only ever points at a real supplier; deleting the supplier
		// out of band unlinks the visit instead of failing.
		{"fk visitas.proveedor_id → proveedores", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_visitas_proveedor') THEN
    ALTER TABLE visitas
      ADD CONSTRAINT fk_visitas_proveedor
      FOREIGN KEY (proveedor_id) REFERENCES proveedores(id) ON DELETE SET NULL;
  END IF;
END $$`},
		{"unique visitas.proveedor_id", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uq_visitas_proveedor') THEN
    CREATE UNIQUE INDEX uq_visitas_proveedor ON visitas (proveedor_id) WHERE proveedor_id IS NOT NULL;
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
