package controllers

import (
	"chatpulse/internal/services"
	"chatpulse/internal/tracker/interfaces"
	"fmt"
	json "github.com/goccy/go-json"
	"net/http"
	"time"
)

type HealthController struct {
	service   services.TrackerServiceInterface
	scheduler interfaces.SchedulerInterface
	startTime time.Time
}

type healthResponse struct {
	Status          string            `json:"status"`
	Uptime          string            `json:"uptime"`
	UptimeSeconds   float64           `json:"uptime_seconds"`
	Groups          int               `json:"groups"`
	Users           int               `json:"users"`
	EventsProcessed int64             `json:"events_processed"`
	EventsDropped   int64             `json:"events_dropped"`
	Datasets        map[string]string `json:"datasets"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	overview := hc.service.GetOverview()
	resp := healthResponse{
		Status:          "ok",
		Uptime:          formatDuration(uptime),
		UptimeSeconds:   uptime.Seconds(),
		Groups:          overview.Groups,
		Users:           overview.Users,
		EventsProcessed: overview.EventsProcessed,
		EventsDropped:   overview.EventsDropped,
		Datasets:        hc.scheduler.DatasetStates(),
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(service services.TrackerServiceInterface, scheduler interfaces.SchedulerInterface) *HealthController {
	return &HealthController{
		service:   service,
		scheduler: scheduler,
		startTime: time.Now(),
	}
}
