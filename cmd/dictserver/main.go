// Command dictserver loads a dictionary definition from a JWCC config
// file and exposes a small admin HTTP surface over it: /health,
// /stats, and a Prometheus /metrics endpoint.
package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/geowatson/cachedict"
	cfgpkg "github.com/geowatson/cachedict/config"
	"github.com/geowatson/cachedict/internal/obslog"
	"github.com/geowatson/cachedict/internal/obsmetrics"
	"github.com/geowatson/cachedict/source/dynamo"
	"github.com/geowatson/cachedict/source/file"
	"github.com/geowatson/cachedict/source/memory"
	"github.com/geowatson/cachedict/source/sqlite"
)

func main() {
	var (
		configPath = pflag.String("config", "dictionary.json", "path to a JWCC dictionary config file")
		addr       = pflag.String("addr", ":8080", "admin HTTP listen address")
	)
	pflag.Parse()

	log := obslog.New()

	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		log.Error("load config", "error", err)
		return
	}

	src, err := buildSource(cfg.Source)
	if err != nil {
		log.Error("build source", "error", err)
		return
	}

	schema, err := cfg.Schema()
	if err != nil {
		log.Error("build schema", "error", err)
		return
	}

	recorder := obsmetrics.New("cachedict")

	dict, err := cachedict.New(cfg.Name, schema, src, cfg.Lifetime(), cfg.CacheSize,
		cachedict.WithRecorder(recorder), cachedict.WithResourceLimits(cfg.Limits()))
	if err != nil {
		log.Error("construct dictionary", "error", err)
		return
	}

	log.Info("dictionary ready", "name", dict.Name(), "capacity", cfg.CacheSize)

	r := chi.NewRouter()
	r.Get("/health", healthHandler)
	r.Get("/stats", statsHandler(dict))
	r.Handle("/metrics", promhttp.Handler())

	log.Info("admin server listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Error("admin server stopped", "error", err)
	}
}

func buildSource(sc cfgpkg.SourceConfig) (cachedict.Source, error) {
	switch sc.Kind {
	case "memory":
		return memory.New(len(sc.Columns)), nil
	case "sqlite":
		return sqlite.Open(sc.DSN, sc.Table, sc.KeyColumn, sc.Columns)
	case "dynamo":
		return dynamo.NewDefault(context.Background(), sc.Table, sc.KeyAttribute, sc.Columns)
	case "file":
		return file.Open(sc.Path), nil
	default:
		return nil, cachedict.ErrUnsupportedSource
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func statsHandler(dict *cachedict.Dictionary) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dict.Stats())
	}
}
