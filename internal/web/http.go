package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/winspan/xraysync/internal/geodata"
	"github.com/winspan/xraysync/internal/history"
	"github.com/winspan/xraysync/pkg/config"
)

// Api 管理接口
type Api struct {
	mgr     *geodata.SyncManager
	store   *history.Store // 可为 nil
	checker func(ctx context.Context) error
	cfg     *config.Config
	token   string
}

// BindRoutes mounts the admin API onto r. store and checker are optional.
func BindRoutes(r *chi.Mux, mgr *geodata.SyncManager, store *history.Store, checker func(ctx context.Context) error, cfg *config.Config) {
	api := &Api{mgr: mgr, store: store, checker: checker, cfg: cfg, token: cfg.Admin.Token}

	// 中间件
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Timeout(30*time.Second))

	r.Get("/api/health", api.health)
	if cfg.Monitoring.Enabled {
		r.Handle(cfg.Monitoring.Path, promhttp.Handler())
	}

	r.Group(func(pr chi.Router) {
		pr.Use(api.auth)
		pr.Get("/api/sync/status", api.getSyncStatus)
		pr.Post("/api/sync/now", api.syncNow)
		pr.Get("/api/sync/history", api.getSyncHistory)
	})
}

// auth 简单的 Bearer token 校验
func (a *Api) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.token != "" && r.Header.Get("Authorization") != "Bearer "+a.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Api) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}
	if a.checker != nil {
		if err := a.checker(r.Context()); err != nil {
			resp["status"] = "degraded"
			resp["service"] = err.Error()
		} else {
			resp["service"] = "answering"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *Api) getSyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.mgr.Status())
}

func (a *Api) syncNow(w http.ResponseWriter, r *http.Request) {
	result, err := a.mgr.SyncNow(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	if result == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "sync already in progress"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *Api) getSyncHistory(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history disabled"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := a.store.RecentRuns(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs, "count": len(runs)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
