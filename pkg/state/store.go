// Package state owns the in-memory form values for one report plus their
// persisted draft snapshot, keyed per game so parallel drafts do not clash.
package state

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/goliatone/go-reportform/pkg/template"
)

const (
	snapshotKeyPrefix    = "gameReportForm-"
	manualInputKeySuffix = "-manualInputMode"

	// SnapshotTTL bounds how long a persisted draft stays restorable.
	SnapshotTTL = 24 * time.Hour
)

// snapshot is the JSON persisted value: an epoch-millisecond timestamp plus
// the merged form values (settings markdown included under the settings ids).
type snapshot struct {
	Timestamp  int64          `json:"timestamp"`
	FormValues map[string]any `json:"formValues"`
}

// Subscriber observes value mutations. Fired synchronously on the mutating
// call; persistence debouncing is the caller's concern, not the store's.
type Subscriber func(fieldID, value string)

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source, used by expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store holds FormValues and the section-editor markdown cache for one form
// instance. Not safe for concurrent use; the form is single-threaded.
type Store struct {
	gameName        string
	kv              KV
	now             func() time.Time
	values          map[string]string
	sectionMarkdown map[string]string
	subscribers     []Subscriber
}

// NewStore creates a store for the given game backed by the supplied KV.
func NewStore(gameName string, kv KV, options ...Option) *Store {
	s := &Store{
		gameName:        gameName,
		kv:              kv,
		now:             time.Now,
		values:          make(map[string]string),
		sectionMarkdown: make(map[string]string),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Subscribe registers a mutation observer.
func (s *Store) Subscribe(fn Subscriber) {
	if fn == nil {
		return
	}
	s.subscribers = append(s.subscribers, fn)
}

// Seed populates the values in the documented order: template defaults,
// then prior-submission overrides restricted to the allow-list, then a full
// override from the persisted snapshot when one is live.
func (s *Store) Seed(doc template.TemplateDocument, prior map[string]string, allowList []string) {
	for _, field := range doc.Fields {
		if !field.Editable() {
			continue
		}
		s.values[field.ID] = field.DefaultValue()
	}

	if len(prior) > 0 {
		allowed := make(map[string]struct{}, len(allowList))
		for _, id := range allowList {
			allowed[id] = struct{}{}
		}
		for id, value := range prior {
			if _, ok := allowed[id]; !ok {
				continue
			}
			s.values[id] = value
		}
	}

	if restored, ok := s.Restore(); ok {
		for id, value := range restored {
			s.values[id] = value
		}
	}
}

// Get returns the current value for a field id.
func (s *Store) Get(fieldID string) (string, bool) {
	value, ok := s.values[fieldID]
	return value, ok
}

// Set mutates a field value and notifies subscribers.
func (s *Store) Set(fieldID, value string) {
	s.values[fieldID] = value
	s.notify(fieldID, value)
}

// SetSectionMarkdown caches the serialised section editor output for a
// settings field. The markdown shadows the plain value during assembly and
// is folded into persisted snapshots.
func (s *Store) SetSectionMarkdown(fieldID, markdown string) {
	s.sectionMarkdown[fieldID] = markdown
	s.notify(fieldID, markdown)
}

// Values returns a copy of the current form values.
func (s *Store) Values() map[string]string {
	out := make(map[string]string, len(s.values))
	for id, value := range s.values {
		out[id] = value
	}
	return out
}

// SectionMarkdown returns a copy of the cached section editor outputs.
func (s *Store) SectionMarkdown() map[string]string {
	out := make(map[string]string, len(s.sectionMarkdown))
	for id, value := range s.sectionMarkdown {
		out[id] = value
	}
	return out
}

// Persist writes the draft snapshot. Callers debounce; every call writes.
func (s *Store) Persist() error {
	merged := s.Values()
	for id, markdown := range s.sectionMarkdown {
		merged[id] = markdown
	}

	values := make(map[string]any, len(merged))
	for id, value := range merged {
		values[id] = value
	}

	payload, err := json.Marshal(snapshot{
		Timestamp:  s.now().UnixMilli(),
		FormValues: values,
	})
	if err != nil {
		return fmt.Errorf("state: marshal snapshot: %w", err)
	}
	s.kv.Set(s.snapshotKey(), string(payload))
	return nil
}

// Restore reads the persisted snapshot. A snapshot at or past SnapshotTTL is
// treated as absent and removed. Corrupt payloads are likewise discarded.
func (s *Store) Restore() (map[string]string, bool) {
	raw, ok := s.kv.Get(s.snapshotKey())
	if !ok {
		return nil, false
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.kv.Remove(s.snapshotKey())
		return nil, false
	}

	age := s.now().Sub(time.UnixMilli(snap.Timestamp))
	if age >= SnapshotTTL {
		s.kv.Remove(s.snapshotKey())
		return nil, false
	}

	out := make(map[string]string, len(snap.FormValues))
	for id, value := range snap.FormValues {
		out[id] = coerceScalar(value)
	}
	return out, true
}

// Clear removes the persisted snapshot without touching in-memory values.
// Used on cancel; a full reset goes through Reset.
func (s *Store) Clear() {
	s.kv.Remove(s.snapshotKey())
}

// Reset reinitialises the in-memory values from the template defaults and
// drops the cached section markdown. The snapshot is left alone.
func (s *Store) Reset(doc template.TemplateDocument) {
	s.values = make(map[string]string)
	s.sectionMarkdown = make(map[string]string)
	for _, field := range doc.Fields {
		if !field.Editable() {
			continue
		}
		s.values[field.ID] = field.DefaultValue()
	}
}

// ManualInputMode reads the persisted UI preference stored beside the
// snapshot.
func (s *Store) ManualInputMode() bool {
	raw, ok := s.kv.Get(s.manualInputKey())
	if !ok {
		return false
	}
	value, err := strconv.ParseBool(raw)
	return err == nil && value
}

// SetManualInputMode persists the preference.
func (s *Store) SetManualInputMode(enabled bool) {
	s.kv.Set(s.manualInputKey(), strconv.FormatBool(enabled))
}

func (s *Store) notify(fieldID, value string) {
	for _, fn := range s.subscribers {
		fn(fieldID, value)
	}
}

func (s *Store) snapshotKey() string {
	return snapshotKeyPrefix + s.gameName
}

func (s *Store) manualInputKey() string {
	return s.snapshotKey() + manualInputKeySuffix
}

func coerceScalar(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
