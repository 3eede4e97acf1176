package router

import (
	"database/sql"
	"net/http"

	mem "vet-med-tracker/internal/adapters/storage/memory"
	pg "vet-med-tracker/internal/adapters/storage/postgres"
	"vet-med-tracker/internal/domain/administrations"
	"vet-med-tracker/internal/domain/animals"
	"vet-med-tracker/internal/domain/caregivers"
	"vet-med-tracker/internal/domain/compliance"
	"vet-med-tracker/internal/domain/dueboard"
	"vet-med-tracker/internal/domain/inventory"
	"vet-med-tracker/internal/domain/regimens"
	"vet-med-tracker/internal/middleware"
	"vet-med-tracker/internal/platform/logger"
	"vet-med-tracker/internal/platform/metrics"
	"vet-med-tracker/internal/ports/auth"

	_ "vet-med-tracker/docs" // registra la spec swagger

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Log     logger.Logger
	Metrics *metrics.Server

	TrustClientStatus bool
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewServer()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log))
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		animalRepo  animals.Repository
		grantRepo   caregivers.Repository
		regimenRepo regimens.Repository
		stockRepo   inventory.Repository
		adminRepo   administrations.Repository
	)

	if opts.DB != nil {
		animalRepo = pg.NewAnimalsRepo(opts.DB)
		grantRepo = pg.NewGrantsRepo(opts.DB)
		regimenRepo = pg.NewRegimensRepo(opts.DB)
		stockRepo = pg.NewInventoryRepo(opts.DB)
		adminRepo = pg.NewAdministrationsRepo(opts.DB)
	} else {
		animalRepo = mem.NewAnimalRepo()
		grantRepo = mem.NewGrantRepo()
		regimenRepo = mem.NewRegimenRepo()
		stockRepo = mem.NewInventoryRepo()
		adminRepo = mem.NewAdministrationRepo()
	}

	// Services por módulo
	animalsSvc := animals.NewService(animalRepo)
	grantsSvc := caregivers.NewService(grantRepo)
	regimensSvc := regimens.NewService(regimenRepo)
	stockSvc := inventory.NewService(stockRepo)
	adminsSvc := administrations.NewService(adminRepo, administrations.Deps{
		Regimens:          regimensSvc,
		Animals:           animalsSvc,
		Stock:             stockSvc,
		Log:               log,
		Metrics:           m,
		TrustClientStatus: opts.TrustClientStatus,
	})
	dueSvc := dueboard.NewService(animalsSvc, regimensSvc, adminsSvc)
	complianceSvc := compliance.NewService(regimensSvc, adminsSvc)

	// Rutas por módulo
	animals.RegisterRoutes(r, animalsSvc, grantsSvc)
	caregivers.RegisterRoutes(r, grantsSvc, animalsSvc)
	regimens.RegisterRoutes(r, regimensSvc, animalsSvc, grantsSvc)
	inventory.RegisterRoutes(r, stockSvc, grantsSvc)
	administrations.RegisterRoutes(r, adminsSvc, animalsSvc, grantsSvc)
	dueboard.RegisterRoutes(r, dueSvc, animalsSvc, grantsSvc)
	compliance.RegisterRoutes(r, complianceSvc, animalsSvc, grantsSvc)

	return r
}
