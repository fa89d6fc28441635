// Package sections maintains the user-organised settings sections backing
// the display and graphics fields of a report: ordered, titled groups of
// key/value entries that serialise to a fixed markdown dialect.
package sections

import (
	"fmt"
)

// Item is one key/value settings entry inside a section.
type Item struct {
	Key   string
	Value string
}

// Section is a titled, ordered group of items. The title may be blank.
type Section struct {
	Title string
	Items []Item
}

func (s Section) clone() Section {
	return Section{
		Title: s.Title,
		Items: append([]Item(nil), s.Items...),
	}
}

// Subscriber receives the re-serialised markdown after every structural
// change. Decoupled from rendering: the form store registers one to keep its
// cached field value current.
type Subscriber func(markdown string)

// Editor manages the ordered section list for a single settings field.
// It is not safe for concurrent use; the form runs on a single event loop.
type Editor struct {
	fieldID     string
	sections    []Section
	subscribers []Subscriber
	touched     bool
}

// NewEditor creates an empty editor bound to a field id.
func NewEditor(fieldID string) *Editor {
	return &Editor{fieldID: fieldID}
}

// FieldID reports which form field the editor feeds.
func (e *Editor) FieldID() string {
	return e.fieldID
}

// Subscribe registers a callback fired after every structural change.
func (e *Editor) Subscribe(fn Subscriber) {
	if fn == nil {
		return
	}
	e.subscribers = append(e.subscribers, fn)
}

// Touched reports whether the editor has been mutated (or rehydrated) since
// creation. The rule engine uses this to switch minLength wording.
func (e *Editor) Touched() bool {
	return e.touched
}

// Sections returns a deep copy of the current section list.
func (e *Editor) Sections() []Section {
	out := make([]Section, 0, len(e.sections))
	for _, section := range e.sections {
		out = append(out, section.clone())
	}
	return out
}

// AddSection appends a section with the given title and returns its index.
func (e *Editor) AddSection(title string) int {
	e.sections = append(e.sections, Section{Title: title})
	e.notify()
	return len(e.sections) - 1
}

// RemoveSection deletes the section at the given index.
func (e *Editor) RemoveSection(idx int) error {
	if err := e.checkSection(idx); err != nil {
		return err
	}
	e.sections = append(e.sections[:idx], e.sections[idx+1:]...)
	e.notify()
	return nil
}

// MoveSection reorders a section from one index to another, shifting the
// sections in between.
func (e *Editor) MoveSection(from, to int) error {
	if err := e.checkSection(from); err != nil {
		return err
	}
	if err := e.checkSection(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	section := e.sections[from]
	e.sections = append(e.sections[:from], e.sections[from+1:]...)
	rest := append([]Section(nil), e.sections[to:]...)
	e.sections = append(e.sections[:to], section)
	e.sections = append(e.sections, rest...)
	e.notify()
	return nil
}

// SetTitle renames a section.
func (e *Editor) SetTitle(idx int, title string) error {
	if err := e.checkSection(idx); err != nil {
		return err
	}
	e.sections[idx].Title = title
	e.notify()
	return nil
}

// AddItem appends a key/value entry to a section and returns its index.
func (e *Editor) AddItem(section int, key, value string) (int, error) {
	if err := e.checkSection(section); err != nil {
		return 0, err
	}
	e.sections[section].Items = append(e.sections[section].Items, Item{Key: key, Value: value})
	e.notify()
	return len(e.sections[section].Items) - 1, nil
}

// UpdateItem replaces the key/value pair at the given position.
func (e *Editor) UpdateItem(section, idx int, key, value string) error {
	if err := e.checkItem(section, idx); err != nil {
		return err
	}
	e.sections[section].Items[idx] = Item{Key: key, Value: value}
	e.notify()
	return nil
}

// RemoveItem deletes the entry at the given position.
func (e *Editor) RemoveItem(section, idx int) error {
	if err := e.checkItem(section, idx); err != nil {
		return err
	}
	items := e.sections[section].Items
	e.sections[section].Items = append(items[:idx], items[idx+1:]...)
	e.notify()
	return nil
}

// MoveItem reorders an entry inside a section.
func (e *Editor) MoveItem(section, from, to int) error {
	if err := e.checkItem(section, from); err != nil {
		return err
	}
	if err := e.checkItem(section, to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	items := e.sections[section].Items
	item := items[from]
	items = append(items[:from], items[from+1:]...)
	rest := append([]Item(nil), items[to:]...)
	items = append(items[:to], item)
	items = append(items, rest...)
	e.sections[section].Items = items
	e.notify()
	return nil
}

// Replace swaps the whole section list, used when seeding from a parsed
// markdown snapshot.
func (e *Editor) Replace(sections []Section) {
	e.sections = make([]Section, 0, len(sections))
	for _, section := range sections {
		e.sections = append(e.sections, section.clone())
	}
	e.notify()
}

// Rehydrate parses a previously serialised markdown string and replaces the
// editor contents with the recovered sections. Lossy by design: only heading
// and key/value lines survive.
func (e *Editor) Rehydrate(markdown string) {
	e.Replace(Parse(markdown))
}

func (e *Editor) notify() {
	e.touched = true
	markdown := Serialize(e.sections)
	for _, fn := range e.subscribers {
		fn(markdown)
	}
}

// Markdown serialises the current sections.
func (e *Editor) Markdown() string {
	return Serialize(e.sections)
}

func (e *Editor) checkSection(idx int) error {
	if idx < 0 || idx >= len(e.sections) {
		return fmt.Errorf("sections: section index %d out of range (have %d)", idx, len(e.sections))
	}
	return nil
}

func (e *Editor) checkItem(section, idx int) error {
	if err := e.checkSection(section); err != nil {
		return err
	}
	if idx < 0 || idx >= len(e.sections[section].Items) {
		return fmt.Errorf("sections: item index %d out of range in section %d (have %d)", idx, section, len(e.sections[section].Items))
	}
	return nil
}
