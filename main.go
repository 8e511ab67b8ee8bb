package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"memecanvas/handlers/api/assets"
	"memecanvas/handlers/api/catalog"
	"memecanvas/handlers/api/export"
	"memecanvas/handlers/api/memes"
	"memecanvas/handlers/api/suggest"
	"memecanvas/raster"
	"memecanvas/stores"
)

func setupRouter(store stores.Store, exportCfg export.Config) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "Origin", "Host", "Connection", "Accept-Encoding", "Accept-Language", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/memes", func(r chi.Router) {
			r.Post("/", memes.HandleCreate(store))
			r.Get("/", memes.HandleList(store))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", memes.HandleGet(store))
				r.Patch("/", memes.HandleUpdate(store))
				r.Delete("/", memes.HandleDelete(store))
				r.Post("/export", export.HandleMeme(store, exportCfg))
			})
		})

		r.Post("/export", export.HandleInline(exportCfg))

		r.Route("/assets", func(r chi.Router) {
			r.Post("/", assets.HandleUpload(store))
			r.Get("/{id}", assets.HandleGet(store))
		})

		r.Get("/templates", catalog.HandleListTemplates(store))
		r.Get("/stickers", catalog.HandleListStickers(store))

		r.Post("/suggest", suggest.HandleSuggest())
	})

	return r
}

// assetTimeout reads EXPORT_ASSET_TIMEOUT as a Go duration, keeping the
// rasterizer default when unset or malformed.
func assetTimeout() time.Duration {
	v := os.Getenv("EXPORT_ASSET_TIMEOUT")
	if v == "" {
		return raster.DefaultAssetTimeout
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logrus.WithField("value", v).Warn("Invalid EXPORT_ASSET_TIMEOUT, using default")
		return raster.DefaultAssetTimeout
	}
	return d
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	suggest.Init()
	store := stores.GetStore()

	// Asset URLs handed out by the upload endpoint resolve in process;
	// anything else goes over HTTP.
	resolver := &raster.StoreResolver{
		Assets: store,
		Prefix: "/api/v1/assets/",
		Next:   raster.NewHTTPResolver(),
	}
	exportCfg := export.Config{Resolver: resolver, AssetTimeout: assetTimeout()}

	r := setupRouter(store, exportCfg)
	server := &http.Server{Addr: *listenAddress, Handler: r}

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-signalC

	logrus.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithField("error", err).Warn("Forced shutdown")
	}
}
