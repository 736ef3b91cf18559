package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"spesebot/internal/log"
)

// ErrNotConnected is returned by Do when no handle could be established.
var ErrNotConnected = errors.New("storage: not connected")

// Manager owns the database handle. Every query goes through Do, which
// pings first and transparently reconnects when the ping fails.
type Manager struct {
	driver  Driver
	open    Opener
	timeout time.Duration
	logger  *log.Logger

	mu sync.Mutex
	db *sql.DB
}

func NewManager(driver Driver, open Opener, timeout time.Duration, logger *log.Logger) *Manager {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{
		driver:  driver,
		open:    open,
		timeout: timeout,
		logger:  logger.WithComponent(log.ComponentStorage),
	}
}

// Driver reports which SQL dialect the handle speaks.
func (m *Manager) Driver() Driver {
	return m.driver
}

// Connect opens a new handle and swaps it in, closing the previous one.
func (m *Manager) Connect(ctx context.Context) error {
	db, err := m.open(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to connect to database",
			log.FieldOperation, log.OpConnect,
			log.FieldDriver, m.driver,
			log.FieldError, err)
		return fmt.Errorf("connect to %s: %w", m.driver, err)
	}

	m.mu.Lock()
	old := m.db
	m.db = db
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}

	m.logger.InfoContext(ctx, "Connected to database",
		log.FieldOperation, log.OpConnect,
		log.FieldDriver, m.driver)
	return nil
}

// EnsureConnected pings the current handle and reconnects if the ping fails.
// It never returns an error: a failed reconnect shows up on the next query.
func (m *Manager) EnsureConnected(ctx context.Context) {
	m.logger.DebugContext(ctx, "Checking connection")

	if db := m.handle(); db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			m.logger.DebugContext(ctx, "Ping successful")
			return
		}
		m.logger.WarnContext(ctx, "Connection not working, attempting to reconnect", log.FieldError, err)
	} else {
		m.logger.WarnContext(ctx, "No open connection, attempting to connect")
	}

	if err := m.Connect(ctx); err == nil {
		m.logger.InfoContext(ctx, "Successfully reconnected")
	}
}

// Do is the guarded execution primitive: ensure a live handle, then run fn on it.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context, db *sql.DB) error) error {
	m.EnsureConnected(ctx)

	db := m.handle()
	if db == nil {
		return ErrNotConnected
	}
	return fn(ctx, db)
}

func (m *Manager) Close() error {
	m.mu.Lock()
	db := m.db
	m.db = nil
	m.mu.Unlock()

	if db != nil {
		return db.Close()
	}
	return nil
}

func (m *Manager) handle() *sql.DB {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db
}
