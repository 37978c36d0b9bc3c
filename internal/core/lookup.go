// Package core provides lookup and query helpers over notification history.
package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/notistack/internal/model"
)

// LookupByID finds a notification by its record ID. A unique prefix of at
// least four characters also matches. Returns nil if nothing or more than
// one record matches.
func LookupByID(notifications []model.Notification, id string) *model.Notification {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return nil
	}

	var match *model.Notification
	for i := range notifications {
		nid := strings.ToUpper(notifications[i].ID)
		if nid == id {
			return &notifications[i]
		}
		if len(id) >= 4 && strings.HasPrefix(nid, id) {
			if match != nil {
				return nil
			}
			match = &notifications[i]
		}
	}
	return match
}

// LookupByIndex finds a notification by its index (1-based).
// Returns nil if index is out of bounds.
func LookupByIndex(notifications []model.Notification, index int) *model.Notification {
	idx := index - 1
	if idx < 0 || idx >= len(notifications) {
		return nil
	}
	return &notifications[idx]
}

// Search keeps notifications whose summary or body contains term,
// ignoring case.
func Search(notifications []model.Notification, term string) []model.Notification {
	if term == "" {
		return notifications
	}

	term = strings.ToLower(term)
	var result []model.Notification
	for _, n := range notifications {
		if strings.Contains(strings.ToLower(n.Summary), term) ||
			strings.Contains(strings.ToLower(n.Body), term) {
			result = append(result, n)
		}
	}
	return result
}

// AppCount is the number of notifications recorded for one app.
type AppCount struct {
	AppName string
	Count   int
	Latest  time.Time
}

// CountByApp groups notifications by app, most active first and then by
// name.
func CountByApp(notifications []model.Notification) []AppCount {
	idx := make(map[string]int)
	var out []AppCount
	for _, n := range notifications {
		if n.AppName == "" {
			continue
		}
		i, ok := idx[n.AppName]
		if !ok {
			i = len(out)
			idx[n.AppName] = i
			out = append(out, AppCount{AppName: n.AppName})
		}
		out[i].Count++
		if n.CreatedAt.After(out[i].Latest) {
			out[i].Latest = n.CreatedAt
		}
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return strings.ToLower(out[a].AppName) < strings.ToLower(out[b].AppName)
	})
	return out
}

// ParseDuration parses a duration string with extended formats.
// Supports: 48h, 7d, 1w, 0 (all time)
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "0" || s == "" {
		return 0, nil
	}

	if days, found := strings.CutSuffix(s, "d"); found {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	if weeks, found := strings.CutSuffix(s, "w"); found {
		n, err := strconv.Atoi(weeks)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %s", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration: %s", s)
	}
	return d, nil
}
