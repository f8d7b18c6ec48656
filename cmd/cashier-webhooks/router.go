package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cashier "github.com/goliatone/go-cashier-fastspring"
	"github.com/goliatone/go-cashier-fastspring/core"
)

func newRouter(service *cashier.Service, gatherer promclient.Gatherer) http.Handler {
	mux := chi.NewRouter()
	mux.Use(chimw.Recoverer)
	mux.Use(chimw.RealIP)

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	path := service.Config().HTTP.WebhookPath
	if path == "" {
		path = core.DefaultWebhookPath
	}
	mux.Method(http.MethodPost, path, service.WebhookHandler())
	return mux
}
