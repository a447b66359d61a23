package config

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"

	"github.com/tkanos/gonfig"
	"github.com/trakkie-id/paymentrails/config/application"
	"github.com/trakkie-id/paymentrails/config/conf"
	"github.com/trakkie-id/paymentrails/config/migrations"
	"golang.org/x/sync/errgroup"
)

func RunServer() error {
	var configFile string
	var cfg conf.Config

	flag.StringVar(&configFile, "config-file", "./config/conf/development.json", "Application configuration file")
	flag.Parse()

	err := gonfig.GetConf(configFile, &cfg)
	if err != nil {
		panic(err)
	}

	//Setup Logger
	log := application.SetUpLogger(cfg.LogLevel, cfg.ApplicationName)

	//Override Config Info
	application.OverrideEnvVars(&cfg)

	//Print config info
	log.DebugF("Loaded application configuration file, application configuration : %+v", cfg)

	//Init Database
	db := application.InitDatabase(cfg, log)

	//Run Migrations
	migrations.MigrateDatabase(db)

	//Init Tracer
	tracer := application.InitZipkinTracer(cfg, log)

	//Compose the pipeline
	app, err := BuildApplication(cfg, log, db, tracer)
	if err != nil {
		panic(err)
	}

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: app.Handler,
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		for range c {
			// sig is a ^C, handle it
			log.Info("Shutting down HTTP Server")
			_ = server.Shutdown(context.Background())
		}
	}()

	//Use Error Group for Threads
	g := new(errgroup.Group)

	//Init Prometheus Endpoint
	g.Go(func() error {
		return application.InitPrometheusServer(cfg.MetricsPort, log)
	})

	//Init API Server blocking
	g.Go(func() error {
		log.Info("HTTP Server Started, listening on " + cfg.HTTPPort)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	return g.Wait()
}
