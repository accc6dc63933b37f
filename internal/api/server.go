// Package api exposes the domain operations over a local JSON HTTP API (gin).
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bartek5186/ulvari-mrp/internal/importer"
	"github.com/bartek5186/ulvari-mrp/internal/mrp"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Handler struct {
	svc       *mrp.Service
	imp       *importer.Importer
	importDir func() string // czytane przy każdym żądaniu, żeby reload configu działał
	log       zerolog.Logger
}

func NewHandler(log zerolog.Logger, svc *mrp.Service, imp *importer.Importer, importDir func() string) *Handler {
	return &Handler{svc: svc, imp: imp, importDir: importDir, log: log}
}

// NewRouter buduje router z middleware i wszystkimi trasami /api/v1.
func NewRouter(log zerolog.Logger, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), Logger(log))
	h.Register(r.Group("/api/v1"))
	return r
}

func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/materials", h.ListMaterials)
	g.POST("/materials", h.CreateMaterial)
	g.GET("/materials/:id", h.GetMaterial)
	g.PATCH("/materials/:id", h.UpdateMaterial)
	g.DELETE("/materials/:id", h.DeleteMaterial)

	g.GET("/categories", h.ListCategories)
	g.POST("/categories", h.CreateCategory)

	g.GET("/products", h.ListProducts)
	g.POST("/products", h.CreateProduct)
	g.GET("/products/:id", h.GetProduct)
	g.PATCH("/products/:id", h.UpdateProduct)
	g.DELETE("/products/:id", h.DeleteProduct)
	g.PUT("/products/:id/categories", h.AssignCategories)
	g.GET("/products/:id/parts", h.ListProductParts)
	g.POST("/products/:id/parts", h.AddProductPart)
	g.DELETE("/products/:id/parts/:partId", h.RemoveProductPart)

	g.GET("/projects", h.ListProjects)
	g.POST("/projects", h.CreateProject)
	g.GET("/projects/:id", h.GetProject)
	g.PATCH("/projects/:id", h.UpdateProject)
	g.DELETE("/projects/:id", h.DeleteProject)
	g.PUT("/projects/:id/fields/:field", h.UpdateProjectField)
	g.PUT("/projects/:id/stages/:stage", h.SetStage)
	g.GET("/projects/:id/parts", h.ListProjectParts)
	g.POST("/projects/:id/parts", h.AddProjectPart)
	g.DELETE("/projects/:id/parts/:partId", h.RemoveProjectPart)
	g.GET("/projects/:id/availability", h.CheckAvailability)
	g.POST("/projects/:id/deduct", h.DeductStock)
	g.POST("/projects/:id/start", h.StartProject)
	g.GET("/projects/:id/worksheet", h.Worksheet)

	g.GET("/history", h.History)
	g.GET("/overview", h.Overview)
	g.POST("/imports/scan", h.ScanImports)
}

// Logger loguje każde żądanie przez zerolog.
func Logger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		ev.Int("status", status).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("query", c.Request.URL.RawQuery).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetString("request_id")).
			Msg("http")
	}
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Request.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// Serve uruchamia serwer i blokuje do końca ctx, po czym zamyka go łagodnie.
func Serve(ctx context.Context, log zerolog.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http api start")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http api forced to shutdown")
		return err
	}
	log.Info().Msg("http api stopped")
	return nil
}
