package dbus

import (
	"errors"
	"fmt"
)

const (
	signalClosed = "NotificationClosed"
	signalAction = "ActionInvoked"
)

// ErrNotServing is returned when a signal is emitted while the server does
// not hold the bus.
var ErrNotServing = errors.New("notification server is not on the bus")

// CloseWithReason untracks id and emits NotificationClosed when recordID
// still owns it. Inactive ids, and ids taken over by a replacement, are
// ignored, so each id is closed at most once and only by its latest record.
func (s *NotificationServer) CloseWithReason(id uint32, recordID string, reason CloseReason) error {
	if !s.untrack(id, recordID) {
		return nil
	}
	return s.emitClosed(id, reason)
}

// EmitActionInvoked tells the client that the user picked actionKey.
func (s *NotificationServer) EmitActionInvoked(id uint32, actionKey string) error {
	if err := s.emit(signalAction, id, actionKey); err != nil {
		return err
	}
	s.logger.Debug("action invoked", "id", id, "action_key", actionKey)
	return nil
}

func (s *NotificationServer) emitClosed(id uint32, reason CloseReason) error {
	if err := s.emit(signalClosed, id, uint32(reason)); err != nil {
		return err
	}
	s.logger.Debug("notification closed", "id", id, "reason", reason)
	return nil
}

func (s *NotificationServer) emit(member string, args ...any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotServing
	}
	if err := conn.Emit(DBusPath, DBusInterface+"."+member, args...); err != nil {
		return fmt.Errorf("emit %s: %w", member, err)
	}
	return nil
}
