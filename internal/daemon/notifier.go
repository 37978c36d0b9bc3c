package daemon

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jmylchreest/notistack/internal/model"
)

// NotificationLevel indicates the severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// DefaultNotifyInterval is the minimum spacing between notifications that
// share a key.
const DefaultNotifyInterval = 5 * time.Second

// internalAppName is the app name carried by self-generated notifications.
const internalAppName = "notistackd"

// InternalNotifier shows notifications about the daemon itself. They go
// through the normal pipeline but are marked transient, so they are
// displayed and never written to history.
type InternalNotifier struct {
	mu       sync.Mutex
	logger   *slog.Logger
	publish  func(*model.Notification)
	interval time.Duration
	limiters map[string]*rate.Limiter
	enabled  bool
}

// NewInternalNotifier creates a notifier that hands records to publish.
func NewInternalNotifier(publish func(*model.Notification), logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:   logger,
		publish:  publish,
		interval: DefaultNotifyInterval,
		limiters: make(map[string]*rate.Limiter),
		enabled:  true,
	}
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between notifications with the
// same key. Existing limiters are discarded when the interval changes.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if interval == n.interval {
		return
	}
	n.interval = interval
	n.limiters = make(map[string]*rate.Limiter)
}

// Notify publishes a notification unless key was used within the interval.
// It reports whether the notification was published.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) bool {
	n.mu.Lock()
	if !n.enabled || n.publish == nil {
		n.mu.Unlock()
		return false
	}
	lim, ok := n.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(n.interval), 1)
		n.limiters[key] = lim
	}
	publish := n.publish
	n.mu.Unlock()

	if !lim.Allow() {
		n.logger.Debug("internal notification rate-limited", "key", key, "summary", summary)
		return false
	}

	note := &model.Notification{
		ID:            model.NewID(),
		AppName:       internalAppName,
		Summary:       summary,
		Body:          body,
		ExpireTimeout: 5000,
		CreatedAt:     time.Now().UTC(),
		Hints: model.Hints{
			Category:  "daemon",
			Transient: true,
		},
	}
	switch level {
	case NotificationLevelInfo:
		note.AppIcon = "dialog-information"
		note.Hints.Urgency = model.UrgencyLow
	case NotificationLevelWarning:
		note.AppIcon = "dialog-warning"
		note.Hints.Urgency = model.UrgencyNormal
	default:
		note.AppIcon = "dialog-error"
		note.Hints.Urgency = model.UrgencyCritical
	}

	n.logger.Debug("sending internal notification", "key", key, "summary", summary, "level", level)
	publish(note)
	return true
}

// NotifyConfigReloaded reports a successful config reload.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"notistackd configuration has been reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyConfigError reports a config file that failed to parse or validate.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Keeping the previous configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyStoreError reports a history write failure.
func (n *InternalNotifier) NotifyStoreError(err error) {
	n.Notify(
		"store-error",
		"History Error",
		"Failed to record notification: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyStartup announces that the daemon is running.
func (n *InternalNotifier) NotifyStartup(version, mode string) {
	n.Notify(
		"startup",
		"notistackd Started",
		"Version "+version+" is running in "+mode+" mode.",
		NotificationLevelInfo,
	)
}
