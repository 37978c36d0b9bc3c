package daemon

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notistack/internal/model"
)

type collector struct {
	mu    sync.Mutex
	notes []*model.Notification
}

func (c *collector) publish(n *model.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, n)
}

func TestInternalNotifier_Notify(t *testing.T) {
	c := &collector{}
	n := NewInternalNotifier(c.publish, discardLogger())

	require.True(t, n.Notify("k", "Summary", "Body", NotificationLevelError))
	require.Len(t, c.notes, 1)

	got := c.notes[0]
	assert.Equal(t, "notistackd", got.AppName)
	assert.Equal(t, "Summary", got.Summary)
	assert.Equal(t, "Body", got.Body)
	assert.True(t, got.Hints.Transient)
	assert.Equal(t, model.UrgencyCritical, got.Hints.Urgency)
	assert.Equal(t, "dialog-error", got.AppIcon)
	assert.Equal(t, int32(5000), got.ExpireTimeout)
	assert.NotEmpty(t, got.ID)
}

func TestInternalNotifier_RateLimitedPerKey(t *testing.T) {
	c := &collector{}
	n := NewInternalNotifier(c.publish, discardLogger())
	n.SetMinInterval(time.Hour)

	assert.True(t, n.Notify("a", "first", "", NotificationLevelInfo))
	assert.False(t, n.Notify("a", "again", "", NotificationLevelInfo))
	assert.True(t, n.Notify("b", "other key", "", NotificationLevelInfo))

	require.Len(t, c.notes, 2)
	assert.Equal(t, "first", c.notes[0].Summary)
	assert.Equal(t, "other key", c.notes[1].Summary)
}

func TestInternalNotifier_Disabled(t *testing.T) {
	c := &collector{}
	n := NewInternalNotifier(c.publish, discardLogger())
	n.SetEnabled(false)

	assert.False(t, n.Notify("a", "x", "", NotificationLevelInfo))
	assert.Empty(t, c.notes)
}

func TestInternalNotifier_Helpers(t *testing.T) {
	c := &collector{}
	n := NewInternalNotifier(c.publish, discardLogger())

	n.NotifyConfigReloaded()
	n.NotifyConfigError(errors.New("bad position"))
	n.NotifyStoreError(errors.New("disk full"))
	n.NotifyStartup("1.0.0", "monitor")

	require.Len(t, c.notes, 4)
	assert.Equal(t, model.UrgencyLow, c.notes[0].Hints.Urgency)
	assert.Contains(t, c.notes[1].Body, "bad position")
	assert.Equal(t, model.UrgencyNormal, c.notes[1].Hints.Urgency)
	assert.Contains(t, c.notes[2].Body, "disk full")
	assert.Contains(t, c.notes[3].Body, "monitor mode")
}
