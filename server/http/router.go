package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/1enzo1/nfe-product-import/internal/config"
	impHnd "github.com/1enzo1/nfe-product-import/internal/importer/handler"
	"github.com/1enzo1/nfe-product-import/internal/importer/pipeline"
	"github.com/1enzo1/nfe-product-import/internal/middleware"
)

func NewRouter(cfg config.Settings, logger zerolog.Logger, p *pipeline.Pipeline) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.Server.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.Server.MaxUploadMB) * 1024 * 1024))

	r.Get("/health", impHnd.Health)

	r.Post("/process", impHnd.Process(p, logger))
	r.Post("/upload/nfe", impHnd.UploadNFE(p, cfg, logger))
	r.Post("/reconcile", impHnd.Reconcile(p, logger))

	r.Get("/runs", impHnd.Runs(p))
	r.Get("/metrics", impHnd.Metrics(p))
	r.Get("/pendings", impHnd.Pendings(p))

	return r
}
