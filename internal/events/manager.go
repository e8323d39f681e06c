package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types emitted by the model engine
const (
	RebalanceCompleted = "REBALANCE_COMPLETED"
	RebalanceFailed    = "REBALANCE_FAILED"
	BackupCompleted    = "BACKUP_COMPLETED"
	ErrorOccurred      = "ERROR_OCCURRED"
)

// Event represents a system event
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Manager logs events and fans them out to subscribers. Slow
// subscribers miss events rather than stall the emitter.
type Manager struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	log    zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		subs: make(map[int]chan Event),
		log:  log.With().Str("service", "events").Logger(),
	}
}

// Emit logs an event and delivers it to every subscriber
func (m *Manager) Emit(eventType string, data interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	eventJSON, _ := json.Marshal(event)
	m.log.Info().
		Str("event_type", eventType).
		RawJSON("event", eventJSON).
		Msg("Event emitted")

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// EmitError emits an error event
func (m *Manager) EmitError(err error, context map[string]interface{}) {
	m.Emit(ErrorOccurred, map[string]interface{}{
		"error":   err.Error(),
		"context": context,
	})
}

// Subscribe returns a channel of future events and a cancel function
// that must be called when the subscriber is done
func (m *Manager) Subscribe() (<-chan Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan Event, 16)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}
