package app

import (
	"net/http"

	"github.com/onemorebsmith/soroban-vault/src/postgres"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (a *App) readyz(w http.ResponseWriter, r *http.Request) {
	if postgres.Configured() {
		if err := postgres.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(err.Error()))
			return
		}
	}
	if a.redis != nil {
		if err := a.redis.Ping(r.Context()); err.Err() != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(errors.Wrap(err.Err(), "failed pinging redis").Error()))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(a.Session.State().String()))
}

func (a *App) beginReadyzHandler() {
	a.Logger.Info("enabling health check on port " + a.Config.HealthCheckPort)
	mux := http.NewServeMux()
	mux.HandleFunc("/readyz", a.readyz)
	go func() {
		if err := http.ListenAndServe(a.Config.HealthCheckPort, mux); err != nil {
			a.Logger.Error("health check server stopped", zap.Error(err))
		}
	}()
}
