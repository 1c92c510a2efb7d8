package controllers

import (
	"chatpulse/internal/models"
	"chatpulse/internal/providers"
	"chatpulse/internal/services"
	"chatpulse/internal/tracker/interfaces"
	"chatpulse/internal/transport"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type ApiController struct {
	logger     providers.Logger
	service    services.TrackerServiceInterface
	cache      providers.CacheProviderInterface
	client     transport.Client
	compressor interfaces.CompressorInterface
}

func NewApiController(logger providers.Logger, service services.TrackerServiceInterface, cache providers.CacheProviderInterface, client transport.Client, compressor interfaces.CompressorInterface) *ApiController {
	return &ApiController{
		logger:     logger,
		service:    service,
		cache:      cache,
		client:     client,
		compressor: compressor,
	}
}

func writeJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() ([]byte, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		writeJSON(w, data)
		return
	}

	data, err := compute()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, data)
	writeJSON(w, data)
}

// ReceiveEvent ingests one message event. Processing never reports a
// per-event failure to the sender, so the only answer is "accepted".
func (ac *ApiController) ReceiveEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var evt models.MessageEvent
	err := json.NewDecoder(r.Body).Decode(&evt)
	if err != nil {
		ac.logger.Debugf(providers.GetLogTypeByRequestType(r.Method), "Rejected event payload: %s", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	ac.service.ProcessEvent(r.Context(), &evt, ac.client)
	w.WriteHeader(http.StatusAccepted)
}

func (ac *ApiController) GetGroups(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "groups", func() ([]byte, error) {
		return ac.service.GroupsJSON()
	})
}

func (ac *ApiController) GetGroup(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	limit := cast.ToInt(r.URL.Query().Get("limit"))

	cacheKey := "group:" + id + ":" + cast.ToString(limit)
	if data, ok := ac.cache.Get(cacheKey); ok {
		writeJSON(w, data)
		return
	}

	data, found, err := ac.service.GroupJSON(id, limit)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	ac.cache.Set(cacheKey, data)
	writeJSON(w, data)
}

func (ac *ApiController) GetUsers(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "users", func() ([]byte, error) {
		return ac.service.UsersJSON()
	})
}

func (ac *ApiController) GetUser(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	cacheKey := "user:" + id
	if data, ok := ac.cache.Get(cacheKey); ok {
		writeJSON(w, data)
		return
	}

	data, found, err := ac.service.UserJSON(id)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	ac.cache.Set(cacheKey, data)
	writeJSON(w, data)
}

func (ac *ApiController) GetOverview(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "overview", func() ([]byte, error) {
		return json.Marshal(ac.service.GetOverview())
	})
}

// Export streams a zstd-compressed snapshot of both datasets. Always
// computed fresh; exports are rare and must not serve stale bytes.
func (ac *ApiController) Export(w http.ResponseWriter, r *http.Request) {
	snapshot, err := ac.service.SnapshotJSON()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	compressed, err := ac.compressor.Compress(snapshot)
	if err != nil {
		ac.logger.Errorf(providers.TypeApp, "Cannot compress export: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zstd")
	w.Header().Set("Content-Disposition", `attachment; filename="chatpulse-export.json.zst"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(compressed)
}
