package testutil

import (
	"chatpulse/internal/models"
	"chatpulse/internal/providers"
	"context"
	"fmt"
	"sync"
	"time"
)

// MockLogger implements providers.Logger, keeping rendered messages
// grouped by level so tests can assert that a path warned or errored.
// The zero value is ready to use.
type MockLogger struct {
	mu      sync.Mutex
	entries map[string][]LogEntry
}

type LogEntry struct {
	Type    providers.TypeEnum
	Message string
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string][]LogEntry)
	}
	m.entries[level] = append(m.entries[level], LogEntry{Type: t, Message: fmt.Sprintf(format, args...)})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// EntriesByLevel returns a copy of the entries recorded at the given level.
func (m *MockLogger) EntriesByLevel(level string) []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LogEntry(nil), m.entries[level]...)
}

// MockClient implements transport.Client with injectable behavior.
type MockClient struct {
	mu        sync.Mutex
	MetaFn    func(ctx context.Context, groupID string) (*models.GroupMetadata, error)
	CallCount int
}

func (m *MockClient) GroupMetadata(ctx context.Context, groupID string) (*models.GroupMetadata, error) {
	m.mu.Lock()
	m.CallCount++
	fn := m.MetaFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, groupID)
	}
	return &models.GroupMetadata{ID: groupID}, nil
}

func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// MockCache is a map-backed providers.CacheProviderInterface with no
// expiry, so entries stay visible for the whole test.
type MockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu              sync.Mutex
	RequestsTotal   int
	CacheHits       int
	CacheMisses     int
	EventsProcessed int
	EventsDropped   int
	MetaHits        int
	MetaMisses      int
	MetaStaleServed int
	FlushObserved   map[string]int
	FlushErrors     map[string]int
	BackupsCreated  int
	BackupsSwept    int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		FlushObserved: make(map[string]int),
		FlushErrors:   make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(endpoint string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestsTotal++
}

func (m *MockMetrics) ObserveRequestDuration(endpoint string, duration time.Duration) {}

func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *MockMetrics) IncEventsProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EventsProcessed++
}

func (m *MockMetrics) IncEventsDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EventsDropped++
}

func (m *MockMetrics) IncMetaHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MetaHits++
}

func (m *MockMetrics) IncMetaMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MetaMisses++
}

func (m *MockMetrics) IncMetaStaleServed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MetaStaleServed++
}

func (m *MockMetrics) ObserveFlushDuration(dataset string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FlushObserved[dataset]++
}

func (m *MockMetrics) IncFlushErrors(dataset string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FlushErrors[dataset]++
}

func (m *MockMetrics) IncBackupsCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BackupsCreated++
}

func (m *MockMetrics) IncBackupsSwept() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BackupsSwept++
}
