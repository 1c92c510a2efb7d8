package services

import (
	"chatpulse/internal/models"
	"chatpulse/internal/providers"
	"chatpulse/internal/structures"
	"chatpulse/internal/tracker"
	"chatpulse/internal/transport"
	"context"

	"go.uber.org/atomic"
)

type Overview struct {
	Groups          int   `json:"groups"`
	Users           int   `json:"users"`
	EventsProcessed int64 `json:"eventsProcessed"`
	EventsDropped   int64 `json:"eventsDropped"`
}

type TrackerServiceInterface interface {
	ProcessEvent(ctx context.Context, evt *models.MessageEvent, client transport.Client)
	GroupsJSON() ([]byte, error)
	GroupJSON(id string, historyLimit int) ([]byte, bool, error)
	UsersJSON() ([]byte, error)
	UserJSON(id string) ([]byte, bool, error)
	SnapshotJSON() ([]byte, error)
	GetOverview() Overview
}

type TrackerService struct {
	buffer    *tracker.Buffer
	metaCache *tracker.MetaCache[*models.GroupMetadata]
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface

	processed atomic.Int64
	dropped   atomic.Int64
}

// ProcessEvent is the sole entry point for inbound message events. It
// returns nothing and never panics outward: one bad event must not
// stop the stream. Group events that cannot resolve metadata (refresh
// failed and nothing stale at hand) are dropped whole.
func (ts *TrackerService) ProcessEvent(ctx context.Context, evt *models.MessageEvent, client transport.Client) {
	defer func() {
		if r := recover(); r != nil {
			ts.dropped.Inc()
			ts.metrics.IncEventsDropped()
			ts.logger.Errorf(providers.TypeEvent, "Panic while processing event: %v", r)
		}
	}()

	if evt == nil || evt.RemoteJID == "" {
		ts.dropped.Inc()
		ts.metrics.IncEventsDropped()
		ts.logger.Debugf(providers.TypeEvent, "Dropping event without a source id")
		return
	}
	if evt.Type == "" {
		evt.Type = "unknown"
	}

	if evt.IsGroup() {
		meta, err := ts.metaCache.Get(ctx, evt.RemoteJID, func(ctx context.Context, key string) (*models.GroupMetadata, error) {
			return client.GroupMetadata(ctx, key)
		})
		if err != nil {
			ts.dropped.Inc()
			ts.metrics.IncEventsDropped()
			ts.logger.Errorf(providers.TypeEvent, "Cannot resolve metadata for %s, dropping event: %s", evt.RemoteJID, err)
			return
		}
		ts.buffer.TrackGroupMessage(evt, meta)
	}

	ts.buffer.TrackUserMessage(evt)

	ts.processed.Inc()
	ts.metrics.IncEventsProcessed()
	ts.logger.Debugf(providers.TypeEvent, "Tracked %s event from %s", evt.Type, evt.SenderKey())
}

func (ts *TrackerService) GroupsJSON() ([]byte, error) {
	return ts.buffer.GroupsJSON()
}

func (ts *TrackerService) GroupJSON(id string, historyLimit int) ([]byte, bool, error) {
	return ts.buffer.GroupJSON(id, historyLimit)
}

func (ts *TrackerService) UsersJSON() ([]byte, error) {
	return ts.buffer.UsersJSON()
}

func (ts *TrackerService) UserJSON(id string) ([]byte, bool, error) {
	return ts.buffer.UserJSON(id)
}

func (ts *TrackerService) SnapshotJSON() ([]byte, error) {
	return ts.buffer.SnapshotJSON()
}

func (ts *TrackerService) GetOverview() Overview {
	return Overview{
		Groups:          ts.buffer.GroupCount(),
		Users:           ts.buffer.UserCount(),
		EventsProcessed: ts.processed.Load(),
		EventsDropped:   ts.dropped.Load(),
	}
}

func NewTrackerService(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, buffer *tracker.Buffer) TrackerServiceInterface {
	return &TrackerService{
		buffer:    buffer,
		metaCache: tracker.NewMetaCache[*models.GroupMetadata](conf.Tracker.MetadataTTL, logger, metrics),
		logger:    logger,
		metrics:   metrics,
	}
}
