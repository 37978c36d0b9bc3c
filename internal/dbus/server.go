package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

// CloseHandler is called when a client asks to close one of our ids.
type CloseHandler func(id uint32)

// NotificationServer owns org.freedesktop.Notifications. Every Notify call
// is decoded exactly like a monitored one and handed to the sink.
//
// Exported methods returning *dbus.Error are the bus-facing API and are
// called by godbus on its own goroutines.
type NotificationServer struct {
	logger  *slog.Logger
	sink    Publisher
	info    ServerInfo
	onClose CloseHandler

	lastID atomic.Uint32

	mu   sync.Mutex
	conn *dbus.Conn
	// active maps each open bus id to the record currently shown under it.
	// A replacement takes over the id from the record it replaces.
	active map[uint32]string
}

// NewNotificationServer creates a new NotificationServer publishing to sink.
func NewNotificationServer(sink Publisher, logger *slog.Logger) *NotificationServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationServer{
		logger: logger,
		sink:   sink,
		info:   DefaultServerInfo(),
		active: make(map[uint32]string),
	}
}

// SetCloseHandler sets the handler run when CloseNotification hits an
// active id. Call before Run.
func (s *NotificationServer) SetCloseHandler(handler CloseHandler) {
	s.onClose = handler
}

// SetServerInfo sets what GetServerInformation reports. Call before Run.
func (s *NotificationServer) SetServerInfo(info ServerInfo) {
	s.info = info
}

// Run claims the bus name and serves until ctx is cancelled. Failing to
// claim the name, or losing the bus, is an *IngestError.
func (s *NotificationServer) Run(ctx context.Context) error {
	conn, err := s.claim()
	if err != nil {
		return &IngestError{Op: "serve", Err: err}
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer s.release(conn)

	s.logger.Info("serving notifications", "name", DBusBusName, "path", DBusPath)

	select {
	case <-ctx.Done():
		return nil
	case <-conn.Context().Done():
		if ctx.Err() != nil {
			return nil
		}
		return &IngestError{Op: "serve", Err: ErrTransportLost}
	}
}

// claim connects, exports the interface and takes the well-known name.
func (s *NotificationServer) claim() (*dbus.Conn, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("export %s: %w", DBusInterface, err)
	}
	if err := conn.Export(introspect.NewIntrospectable(introspection()), DBusPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("export introspection: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("request %s: %w", DBusBusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("%s is owned by another notification daemon", DBusBusName)
	}
	return conn, nil
}

func (s *NotificationServer) release(conn *dbus.Conn) {
	s.mu.Lock()
	s.conn = nil
	s.mu.Unlock()

	if _, err := conn.ReleaseName(DBusBusName); err != nil {
		s.logger.Debug("failed to release bus name", "error", err)
	}
	if err := conn.Close(); err != nil {
		s.logger.Debug("failed to close bus connection", "error", err)
	}
	s.logger.Info("stopped serving notifications")
}

// GetCapabilities implements org.freedesktop.Notifications.GetCapabilities.
func (s *NotificationServer) GetCapabilities() ([]string, *dbus.Error) {
	return ServerCapabilities, nil
}

// GetServerInformation implements org.freedesktop.Notifications.GetServerInformation.
func (s *NotificationServer) GetServerInformation() (string, string, string, string, *dbus.Error) {
	return s.info.Name, s.info.Vendor, s.info.Version, s.info.SpecVersion, nil
}

// Notify implements org.freedesktop.Notifications.Notify. A replaces_id that
// is still active keeps its id; anything else gets a fresh one.
func (s *NotificationServer) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	// godbus hands over nil for empty containers.
	if actions == nil {
		actions = []string{}
	}
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}

	n, err := Decode([]any{appName, replacesID, appIcon, summary, body, actions, hints, expireTimeout})
	if err != nil {
		s.logger.Warn("rejecting Notify call", "app_name", appName, "error", err)
		return 0, dbus.MakeFailedError(err)
	}

	id := s.allocate(replacesID, n.ID)
	s.logger.Debug("notify", "id", id, "replaces_id", replacesID, "app_name", appName, "record", n.ID)

	if s.sink != nil {
		s.sink.Publish(n.WithBusID(id))
	}
	return id, nil
}

// CloseNotification implements org.freedesktop.Notifications.CloseNotification.
// Unknown or already closed ids are ignored.
func (s *NotificationServer) CloseNotification(id uint32) *dbus.Error {
	if !s.untrack(id, "") {
		return nil
	}
	if s.onClose != nil {
		s.onClose(id)
	}
	if err := s.emitClosed(id, CloseReasonClosed); err != nil {
		s.logger.Warn("failed to signal close", "id", id, "error", err)
	}
	return nil
}

// allocate returns the id for a Notify call and marks it active, owned by
// recordID. Zero is never handed out.
func (s *NotificationServer) allocate(replacesID uint32, recordID string) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.active[replacesID]; ok {
		s.active[replacesID] = recordID
		return replacesID
	}
	id := s.lastID.Add(1)
	if id == 0 {
		id = s.lastID.Add(1)
	}
	s.active[id] = recordID
	return id
}

// untrack removes id and reports whether it was active. A non-empty
// recordID must match the current owner; a record that has been replaced
// no longer owns the id.
func (s *NotificationServer) untrack(id uint32, recordID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.active[id]
	if !ok || (recordID != "" && owner != recordID) {
		return false
	}
	delete(s.active, id)
	return true
}

func introspection() *introspect.Node {
	return &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: DBusInterface,
				Methods: []introspect.Method{
					method("GetCapabilities", out("capabilities", "as")),
					method("GetServerInformation",
						out("name", "s"), out("vendor", "s"), out("version", "s"), out("spec_version", "s")),
					method("Notify",
						in("app_name", "s"), in("replaces_id", "u"), in("app_icon", "s"),
						in("summary", "s"), in("body", "s"), in("actions", "as"),
						in("hints", "a{sv}"), in("expire_timeout", "i"), out("id", "u")),
					method("CloseNotification", in("id", "u")),
				},
				Signals: []introspect.Signal{
					signal(signalClosed, arg("id", "u"), arg("reason", "u")),
					signal(signalAction, arg("id", "u"), arg("action_key", "s")),
				},
			},
		},
	}
}

func method(name string, args ...introspect.Arg) introspect.Method {
	return introspect.Method{Name: name, Args: args}
}

func signal(name string, args ...introspect.Arg) introspect.Signal {
	return introspect.Signal{Name: name, Args: args}
}

func arg(name, sig string) introspect.Arg {
	return introspect.Arg{Name: name, Type: sig}
}

func in(name, sig string) introspect.Arg {
	return introspect.Arg{Name: name, Type: sig, Direction: "in"}
}

func out(name, sig string) introspect.Arg {
	return introspect.Arg{Name: name, Type: sig, Direction: "out"}
}
