package router

import (
	"time"

	"github.com/darielruizg/Puntodeventa/internal/config"
	"github.com/darielruizg/Puntodeventa/internal/eventos"
	"github.com/darielruizg/Puntodeventa/internal/handler"
	"github.com/darielruizg/Puntodeventa/internal/infra"
	"github.com/darielruizg/Puntodeventa/internal/metrics"
	"github.com/darielruizg/Puntodeventa/internal/middleware"
	"github.com/darielruizg/Puntodeventa/internal/repository"
	"github.com/darielruizg/Puntodeventa/internal/scanner"
	"github.com/darielruizg/Puntodeventa/internal/service"
	"github.com/darielruizg/Puntodeventa/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the process-wide resources built by the composition root.
// Only DB is required; the rest switch their feature off when nil.
type Deps struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Feed       eventos.Publicador
	Metrics    *metrics.Metrics
	Dispatcher *worker.Dispatcher
	Mailer     *infra.Mailer
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Feed == nil {
		d.Feed = eventos.NewLocal()
	}
	loc, err := cfg.Location()
	if err != nil {
		loc = time.Local
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Metrics))
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Origenes()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	productoRepo := repository.NewProductoRepository(d.DB)
	movimientoStockRepo := repository.NewMovimientoStockRepository(d.DB)
	ventaRepo := repository.NewVentaRepository(d.DB)
	cierreRepo := repository.NewCierreRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(cfg)
	inventarioSvc := service.NewInventarioService(productoRepo, movimientoStockRepo, d.Redis, d.Feed, d.Metrics, cfg.UmbralReposicion)
	ventaSvc := service.NewVentaService(ventaRepo, inventarioSvc, d.Dispatcher, d.Feed, d.Metrics, loc)
	cajaSvc := service.NewCajaService(cierreRepo, ventaRepo, cfg.FondoInicialDefault, d.Feed)
	reporteSvc := service.NewReporteService(ventaRepo)
	escanerSvc := service.NewEscanerService(scanner.Config{
		MinLength:     cfg.EscanerMinLongitud,
		TimeThreshold: cfg.EscanerUmbral(),
	}, inventarioSvc, d.Metrics)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productosH := handler.NewProductosHandler(inventarioSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)
	ventasH := handler.NewVentasHandler(ventaSvc, cfg.NombreNegocio, loc)
	cajaH := handler.NewCajaHandler(cajaSvc, loc)
	reportesH := handler.NewReportesHandler(reporteSvc, loc)
	escanerH := handler.NewEscanerHandler(escanerSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.Mailer))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
	}

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole(middleware.RolOperador))
	{
		prods := v1.Group("/productos")
		{
			prods.GET("", productosH.Listar)
			prods.POST("", productosH.Crear)
			prods.GET("/reponer", inventarioH.ParaReponer)
			prods.GET("/exportar", inventarioH.Exportar)
			prods.POST("/importar", inventarioH.Importar)
			prods.POST("/etiquetas", inventarioH.Etiquetas)
			prods.GET("/codigo/:sku", productosH.BuscarPorCodigo)
			prods.GET("/:id", productosH.ObtenerPorID)
			prods.PATCH("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Eliminar)
			prods.GET("/:id/movimientos", inventarioH.Movimientos)
		}

		ventas := v1.Group("/ventas")
		{
			ventas.POST("", ventasH.RegistrarVenta)
			ventas.GET("/:id", ventasH.ObtenerVenta)
			ventas.GET("/:id/ticket", ventasH.Ticket)
		}

		reportes := v1.Group("/reportes")
		{
			reportes.GET("/ventas", reportesH.Ventas)
			reportes.GET("/ventas/xlsx", reportesH.VentasXLSX)
		}

		caja := v1.Group("/caja")
		{
			caja.GET("/:fecha", cajaH.ObtenerDia)
			caja.PUT("/:fecha/fondo", cajaH.FijarFondo)
			caja.POST("/:fecha/cierre", cajaH.CerrarDia)
		}

		v1.POST("/escaner/eventos", escanerH.Procesar)
		v1.GET("/eventos", handler.Eventos(d.Feed))
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
