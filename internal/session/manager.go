package session

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/askwhyharsh/deskfinder/pkg/errors"
	"github.com/askwhyharsh/deskfinder/pkg/logger"
)

// ClientRegistry is the set of live connections keyed by session.
type ClientRegistry interface {
	SessionIDs() []string
	Disconnect(sessionID string)
}

type Manager struct {
	service  SessionService
	clients  ClientRegistry
	logger   logger.Logger
	interval time.Duration
}

func NewManager(service SessionService, clients ClientRegistry, log logger.Logger, interval time.Duration) *Manager {
	return &Manager{
		service:  service,
		clients:  clients,
		logger:   log,
		interval: interval,
	}
}

// Start periodically disconnects clients whose session has expired.
func (m *Manager) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("Session Manager started")

	for {
		select {
		case <-ticker.C:
			if err := m.disconnectExpired(ctx); err != nil {
				m.logger.Error("Failed to sweep expired sessions", "error", err)
			}
		case <-ctx.Done():
			m.logger.Info("Session Manager stopped")
			return
		}
	}
}

func (m *Manager) disconnectExpired(ctx context.Context) error {
	if m.clients == nil {
		return nil
	}

	swept := 0
	for _, sessionID := range m.clients.SessionIDs() {
		exists, err := m.service.Exists(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to check session %s: %w", sessionID, err)
		}
		if !exists {
			m.clients.Disconnect(sessionID)
			swept++
		}
	}

	if swept > 0 {
		m.logger.Debug("Disconnected expired sessions", "count", swept)
	}
	return nil
}

// End deletes the session and closes its live connection, if any.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	if err := m.service.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if m.clients != nil {
		m.clients.Disconnect(sessionID)
	}
	m.logger.Debug("Session ended", "session_id", sessionID)
	return nil
}

// ValidateSession checks if a session exists and is valid
func (m *Manager) ValidateSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.ErrInvalidSessionID
	}

	exists, err := m.service.Exists(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to validate session: %w", err)
	}

	if !exists {
		return apperrors.ErrSessionNotFound
	}

	// Update last seen
	if err := m.service.UpdateLastSeen(ctx, sessionID); err != nil {
		m.logger.Error("Failed to update last seen", "session_id", sessionID, "error", err)
	}

	return nil
}
