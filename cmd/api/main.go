package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/procurement-api/internal/bootstrap"
	httpRouter "github.com/jhoicas/procurement-api/internal/interfaces/http"
	"github.com/jhoicas/procurement-api/internal/observability/metrics"
	"github.com/jhoicas/procurement-api/pkg/config"
	"github.com/jhoicas/procurement-api/pkg/logger"
)

// @title                       Procurement Reconciliation API
// @version                     1.0
// @description                 Licitaciones, adquisiciones, entregas y stock conciliados por eventos.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
//
// docs/swagger.json se regenera con: go tool swag init -g cmd/api/main.go -o docs --outputTypes json
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Str("tolerance_percent", cfg.Engine.TolerancePercent.String()).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	metrics.Init()

	ctx := context.Background()
	rt, err := bootstrap.Build(ctx, cfg, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("armar motor")
	}
	defer rt.Close()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if err := httpRouter.MountDocs(app, cfg.HTTP.SwaggerFile, cfg.App.Name); err != nil {
		log.Warn().Err(err).Msg("documentación de la API no disponible")
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Engine:    rt.Engine,
		JWTSecret: cfg.JWT.Secret,
		Ping:      rt.Ping,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
