package logging

import "sync"

// Observer receives LogEvents raised during execution. Implementations may
// log, collect metrics, or stream events to a front-end; the core engine
// never depends on a specific one (grounded on monitoring/observer.go's
// ExecutionObserver, narrowed to this engine's single Notify hook since
// every event already carries its own Type).
type Observer interface {
	Notify(event LogEvent)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(LogEvent)

// Notify implements Observer.
func (f ObserverFunc) Notify(event LogEvent) { f(event) }

// Manager fans a single event out to every registered Observer, grounded
// on monitoring/observer.go's ObserverManager.
type Manager struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add registers an observer.
func (m *Manager) Add(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// Notify implements Observer by forwarding event to every registered
// observer in registration order.
func (m *Manager) Notify(event LogEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.observers {
		o.Notify(event)
	}
}
