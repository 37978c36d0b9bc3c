package output

import (
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/notistack/internal/model"
)

// yamlRecord is the YAML view of a notification.
type yamlRecord struct {
	ID        string            `yaml:"id"`
	App       string            `yaml:"app"`
	Summary   string            `yaml:"summary"`
	Body      string            `yaml:"body,omitempty"`
	Urgency   string            `yaml:"urgency"`
	Category  string            `yaml:"category,omitempty"`
	Icon      string            `yaml:"icon,omitempty"`
	Image     string            `yaml:"image,omitempty"`
	Actions   map[string]string `yaml:"actions,omitempty"`
	CreatedAt time.Time         `yaml:"created_at"`
}

// YAMLFormatter writes notifications as a YAML sequence.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format writes notifications as YAML.
func (f *YAMLFormatter) Format(w io.Writer, notifications []model.Notification) error {
	records := make([]yamlRecord, 0, len(notifications))
	for i := range notifications {
		n := &notifications[i]
		rec := yamlRecord{
			ID:        n.ID,
			App:       n.AppName,
			Summary:   n.Summary,
			Body:      n.Body,
			Urgency:   n.Hints.Urgency.String(),
			Category:  n.Hints.Category,
			Icon:      n.AppIcon,
			CreatedAt: n.CreatedAt.UTC(),
		}
		if size, ok := n.Image(); ok {
			rec.Image = size.String()
		}
		if actions := n.ParsedActions(); len(actions) > 0 {
			rec.Actions = make(map[string]string, len(actions))
			for _, a := range actions {
				rec.Actions[a.Key] = a.Label
			}
		}
		records = append(records, rec)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return err
	}
	return enc.Close()
}
