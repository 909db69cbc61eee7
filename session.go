// Package calce2e is an end-to-end test harness for a web calculator.
// It opens a dedicated browser for every scenario, clicks the calculator's buttons,
// presses keys, and asserts the exact text of the display.
package calce2e

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/go-rod/calce2e/lib/defaults"
	"github.com/go-rod/calce2e/lib/utils"
	"github.com/google/uuid"
)

// Manager acquires and releases sessions, it tracks the live ones
type Manager struct {
	Backend Backend
	Logger  utils.Logger

	mu   sync.Mutex
	live map[string]*Session
}

// NewManager with the backend, if it's nil a Chrome with defaults is used
func NewManager(b Backend) *Manager {
	if b == nil {
		b = NewChrome()
	}

	logger := utils.LoggerQuiet
	if defaults.Trace {
		logger = utils.NewLogger("[calce2e] ")
	}

	return &Manager{
		Backend: b,
		Logger:  logger,
		live:    map[string]*Session{},
	}
}

// Acquire a new session with its own browser process
func (m *Manager) Acquire(ctx context.Context, headless bool) (*Session, error) {
	s := &Session{
		ID:       uuid.NewString(),
		Headless: headless,
		manager:  m,
	}

	surface, err := m.Backend.Open(ctx, headless)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.surface = surface
	s.state = StateReady
	s.mu.Unlock()

	m.mu.Lock()
	if m.live == nil {
		m.live = map[string]*Session{}
	}
	m.live[s.ID] = s
	m.mu.Unlock()

	m.logger().Println("session opened", s.ID, "headless:", headless)

	return s, nil
}

// Release the session, it never fails and it's safe to call it multiple times
func (m *Manager) Release(s *Session) {
	if s == nil {
		return
	}

	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	surface := s.surface
	s.mu.Unlock()

	m.mu.Lock()
	delete(m.live, s.ID)
	m.mu.Unlock()

	if err := surface.Close(); err != nil {
		m.logger().Println("session", s.ID, "close:", err)
	}

	m.logger().Println("session released", s.ID)
}

// Live returns the ids of the sessions that are not released yet
func (m *Manager) Live() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]string, 0, len(m.live))
	for id := range m.live {
		list = append(list, id)
	}
	sort.Strings(list)
	return list
}

// Close the backend if it holds resources shared by the sessions, such as a driver process
func (m *Manager) Close() error {
	if c, ok := m.Backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (m *Manager) logger() utils.Logger {
	if m.Logger == nil {
		return utils.LoggerQuiet
	}
	return m.Logger
}

// Session is one browser bound to one page, it's never shared between scenarios
type Session struct {
	ID       string
	Headless bool

	manager *Manager

	mu      sync.Mutex
	state   State
	surface Surface
}

// State of the session
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Navigate the page to the url and wait until it's loaded
func (s *Session) Navigate(ctx context.Context, url string) error {
	surface, err := s.use()
	if err != nil {
		return err
	}
	return surface.Navigate(ctx, url)
}

// Release is the same as Manager.Release
func (s *Session) Release() {
	s.manager.Release(s)
}

func (s *Session) use() (Surface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return nil, &Error{Code: ErrSessionClosed, Details: s.ID}
	}
	return s.surface, nil
}
