package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/notistack/internal/model"
)

var refNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testNotifications() []model.Notification {
	return []model.Notification{
		{
			ID:        "01HZXABC",
			AppName:   "Firefox",
			Summary:   "Download Complete",
			Body:      "myfile.zip has\nfinished downloading",
			CreatedAt: refNow.Add(-5 * time.Minute),
			Actions:   []string{"default", "Open", "show", "Show in folder"},
			Hints:     model.Hints{Urgency: model.UrgencyNormal, Category: "transfer.complete"},
		},
		{
			ID:        "01HZXDEF",
			AppName:   "Slack",
			Summary:   "New Message",
			Body:      "Hello from John",
			CreatedAt: refNow.Add(-2 * time.Hour),
			Hints: model.Hints{
				Urgency:   model.UrgencyCritical,
				ImageSize: &model.ImageSize{Width: 48, Height: 48},
			},
		},
	}
}

func plainOpts() Options {
	return Options{
		ShowIndex:  true,
		BodyMaxLen: 120,
		Now:        func() time.Time { return refNow },
	}
}

func TestNewFormatter(t *testing.T) {
	for _, f := range Formats {
		got, err := NewFormatter(f, plainOpts())
		require.NoError(t, err, f)
		assert.NotNil(t, got)
	}

	_, err := NewFormatter("xml", plainOpts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plain, dmenu, json, yaml")
}

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(plainOpts()).Format(&buf, testNotifications()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "[1] <Firefox> Download Complete (5 minutes ago)", lines[0])
	assert.Equal(t, "    myfile.zip has finished downloading", lines[1])
	assert.Equal(t, "[2] <Slack> ! New Message [image 48x48] (2 hours ago)", lines[2])
	assert.Equal(t, "    Hello from John", lines[3])
}

func TestPlainFormatter_TruncatesBody(t *testing.T) {
	opts := plainOpts()
	opts.ShowIndex = false
	opts.BodyMaxLen = 10

	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(opts).Format(&buf, testNotifications()[:1]))
	assert.Contains(t, buf.String(), "    myfile....\n")
	assert.True(t, strings.HasPrefix(buf.String(), "<Firefox>"))
}

func TestDmenuFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewDmenuFormatter(plainOpts()).Format(&buf, testNotifications()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "01HZXABC | Firefox | Download Complete | myfile.zip has finished downloading", lines[0])
	assert.Equal(t, "01HZXDEF | Slack | New Message | Hello from John", lines[1])
}

func TestDmenuFormatter_NoAppNoBody(t *testing.T) {
	var buf bytes.Buffer
	n := []model.Notification{{ID: "X", Summary: "Only summary"}}
	require.NoError(t, NewDmenuFormatter(plainOpts()).Format(&buf, n))
	assert.Equal(t, "X | Only summary\n", buf.String())
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Format(&buf, testNotifications()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "01HZXABC", decoded[0]["id"])
	assert.Equal(t, "Firefox", decoded[0]["app_name"])

	hints, ok := decoded[1]["hints"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"width": float64(48), "height": float64(48)}, hints["image_size"])
}

func TestJSONFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Format(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter().Format(&buf, testNotifications()))

	var decoded []yamlRecord
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Firefox", decoded[0].App)
	assert.Equal(t, "normal", decoded[0].Urgency)
	assert.Equal(t, "transfer.complete", decoded[0].Category)
	assert.Equal(t, map[string]string{"default": "Open", "show": "Show in folder"}, decoded[0].Actions)
	assert.Empty(t, decoded[0].Image)
	assert.Equal(t, "critical", decoded[1].Urgency)
	assert.Equal(t, "48x48", decoded[1].Image)
	assert.True(t, decoded[1].CreatedAt.Equal(refNow.Add(-2*time.Hour)))
}
