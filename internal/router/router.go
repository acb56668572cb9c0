package router

import (
	"time"

	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/config"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/handler"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/middleware"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/model"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/observability"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/repository"
	"github.com/Lucas-Beni/Visitas-Fornecedores/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb may be nil: rate limiting then counts in process memory.
func New(cfg *config.Config, db *gorm.DB, rdb redis.UniversalClient, metrics *observability.Metrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(middleware.CORS(cfg.Origins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(rdb, middleware.RateLimitConfig{
		Nombre:  "api",
		Limite:  cfg.RateLimitPerMinute,
		Ventana: time.Minute,
	}, metrics))

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	visitaRepo := repository.NewVisitaRepository(db)
	proveedorRepo := repository.NewProveedorRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	visitaSvc := service.NewVisitaService(visitaRepo, metrics)
	proveedorSvc := service.NewProveedorService(proveedorRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	visitasH := handler.NewVisitasHandler(visitaSvc)
	proveedoresH := handler.NewProveedoresHandler(proveedorSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", metrics.Handler())

	// Auth (public)
	loginLimiter := middleware.RateLimiter(rdb, middleware.RateLimitConfig{
		Nombre:  "login",
		Limite:  cfg.LoginRateLimitPerMinute,
		Ventana: time.Minute,
		Mensaje: "Demasiados intentos de login. Intente en 1 minuto.",
	}, metrics)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", loginLimiter, authH.Login)
		auth.POST("/refresh", loginLimiter, authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Ownership is enforced by VisitaService; every known role may reach the routes.
		visitas := v1.Group("/visitas", middleware.RequireRole(model.RolComprador, model.RolAdministrador))
		{
			visitas.GET("", visitasH.Listar)
			visitas.POST("", visitasH.Crear)
			visitas.GET("/estadisticas", visitasH.Estadisticas)
			visitas.GET("/:id", visitasH.ObtenerPorID)
			visitas.PUT("/:id", visitasH.Actualizar)
			visitas.DELETE("/:id", visitasH.Eliminar)
			visitas.POST("/:id/rechazar", visitasH.Rechazar)
			visitas.POST("/:id/aprobar", visitasH.Aprobar)
			visitas.GET("/:id/datos-proveedor", visitasH.DatosProveedor)
		}

		prov := v1.Group("/proveedores", middleware.RequireRole(model.RolAdministrador))
		{
			prov.GET("", proveedoresH.Listar)
			prov.GET("/:id", proveedoresH.ObtenerPorID)
		}

		usuarios := v1.Group("/usuarios", middleware.RequireRole(model.RolAdministrador))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
		}
	}

	// Swagger UI — only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
