package state_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportform/pkg/state"
	"github.com/goliatone/go-reportform/pkg/template"
)

func testTemplate() template.TemplateDocument {
	return template.TemplateDocument{
		Fields: []template.FieldDescriptor{
			{Kind: template.FieldKindMarkdown, Label: "Intro"},
			{Kind: template.FieldKindInput, ID: template.FieldGameName, Label: "Game Name"},
			{Kind: template.FieldKindDropdown, ID: template.FieldDevice, Label: "Device",
				Options: []string{"ROG Ally", "Steam Deck"}, DefaultOptionIndex: 1},
			{Kind: template.FieldKindTextarea, ID: template.FieldGameDisplaySettings, Label: "Display Settings"},
		},
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestSeedFromDefaults(t *testing.T) {
	store := state.NewStore("Hades", state.NewMemoryKV())
	store.Seed(testTemplate(), nil, nil)

	want := map[string]string{
		template.FieldGameName:            "",
		template.FieldDevice:              "Steam Deck",
		template.FieldGameDisplaySettings: "",
	}
	if diff := cmp.Diff(want, store.Values()); diff != "" {
		t.Fatalf("seeded values mismatch (-want +got):\n%s", diff)
	}
}

func TestSeedAppliesPriorAllowListOnly(t *testing.T) {
	store := state.NewStore("Hades", state.NewMemoryKV())
	prior := map[string]string{
		template.FieldGameName:            "Hades",
		template.FieldDevice:              "ROG Ally",
		template.FieldGameDisplaySettings: "should be filtered out",
	}
	store.Seed(testTemplate(), prior, []string{template.FieldGameName, template.FieldDevice})

	if got, _ := store.Get(template.FieldGameName); got != "Hades" {
		t.Fatalf("game name = %q, want Hades", got)
	}
	if got, _ := store.Get(template.FieldDevice); got != "ROG Ally" {
		t.Fatalf("device = %q, want ROG Ally", got)
	}
	if got, _ := store.Get(template.FieldGameDisplaySettings); got != "" {
		t.Fatalf("display settings = %q, want empty (not on the allow list)", got)
	}
}

func TestPersistAndRestore(t *testing.T) {
	kv := state.NewMemoryKV()
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	store := state.NewStore("Hades", kv, state.WithClock(fixedClock(now)))
	store.Seed(testTemplate(), nil, nil)
	store.Set(template.FieldGameName, "Hades")
	store.SetSectionMarkdown(template.FieldGameDisplaySettings, "- **Resolution:** 800p")
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	// A fresh store one hour later restores the snapshot, settings markdown
	// folded in under the field id.
	later := state.NewStore("Hades", kv, state.WithClock(fixedClock(now.Add(time.Hour))))
	restored, ok := later.Restore()
	if !ok {
		t.Fatal("expected a live snapshot")
	}
	if restored[template.FieldGameName] != "Hades" {
		t.Fatalf("restored game name = %q", restored[template.FieldGameName])
	}
	if restored[template.FieldGameDisplaySettings] != "- **Resolution:** 800p" {
		t.Fatalf("restored display settings = %q", restored[template.FieldGameDisplaySettings])
	}
}

func TestRestoreExpiresAfterTTL(t *testing.T) {
	kv := state.NewMemoryKV()
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	store := state.NewStore("Hades", kv, state.WithClock(fixedClock(now)))
	store.Seed(testTemplate(), nil, nil)
	store.Set(template.FieldGameName, "Hades")
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	stale := state.NewStore("Hades", kv, state.WithClock(fixedClock(now.Add(25*time.Hour))))
	if _, ok := stale.Restore(); ok {
		t.Fatal("25h-old snapshot should not restore")
	}
	// Expiry also removes the stored payload.
	if _, ok := kv.Get("gameReportForm-Hades"); ok {
		t.Fatal("expired snapshot should be deleted from the KV")
	}
}

func TestRestoreAtExactTTLBoundaryExpires(t *testing.T) {
	kv := state.NewMemoryKV()
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	store := state.NewStore("Hades", kv, state.WithClock(fixedClock(now)))
	store.Seed(testTemplate(), nil, nil)
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	boundary := state.NewStore("Hades", kv, state.WithClock(fixedClock(now.Add(state.SnapshotTTL))))
	if _, ok := boundary.Restore(); ok {
		t.Fatal("snapshot exactly at the TTL should not restore")
	}
}

func TestRestoreDiscardsCorruptSnapshot(t *testing.T) {
	kv := state.NewMemoryKV()
	kv.Set("gameReportForm-Hades", "{not json")

	store := state.NewStore("Hades", kv)
	if _, ok := store.Restore(); ok {
		t.Fatal("corrupt snapshot should not restore")
	}
	if _, ok := kv.Get("gameReportForm-Hades"); ok {
		t.Fatal("corrupt snapshot should be deleted")
	}
}

func TestRestoreCoercesScalars(t *testing.T) {
	kv := state.NewMemoryKV()
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	payload, err := json.Marshal(map[string]any{
		"timestamp": now.UnixMilli(),
		"formValues": map[string]any{
			"average_fps":       59.5,
			"undervolt_applied": nil,
			"vrr_enabled":       true,
		},
	})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	kv.Set("gameReportForm-Hades", string(payload))

	store := state.NewStore("Hades", kv, state.WithClock(fixedClock(now.Add(time.Minute))))
	restored, ok := store.Restore()
	if !ok {
		t.Fatal("expected snapshot to restore")
	}
	want := map[string]string{
		"average_fps":       "59.5",
		"undervolt_applied": "",
		"vrr_enabled":       "true",
	}
	if diff := cmp.Diff(want, restored); diff != "" {
		t.Fatalf("coercion mismatch (-want +got):\n%s", diff)
	}
}

func TestSeedPrefersSnapshotOverPrior(t *testing.T) {
	kv := state.NewMemoryKV()
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	draft := state.NewStore("Hades", kv, state.WithClock(fixedClock(now)))
	draft.Seed(testTemplate(), nil, nil)
	draft.Set(template.FieldDevice, "ROG Ally")
	if err := draft.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	fresh := state.NewStore("Hades", kv, state.WithClock(fixedClock(now.Add(time.Minute))))
	fresh.Seed(testTemplate(), map[string]string{template.FieldDevice: "Steam Deck"}, []string{template.FieldDevice})

	if got, _ := fresh.Get(template.FieldDevice); got != "ROG Ally" {
		t.Fatalf("device = %q, want the snapshot value to win", got)
	}
}

func TestClearRemovesSnapshotOnly(t *testing.T) {
	kv := state.NewMemoryKV()
	store := state.NewStore("Hades", kv)
	store.Seed(testTemplate(), nil, nil)
	store.Set(template.FieldGameName, "Hades")
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	store.Clear()
	if _, ok := kv.Get("gameReportForm-Hades"); ok {
		t.Fatal("snapshot should be removed")
	}
	if got, _ := store.Get(template.FieldGameName); got != "Hades" {
		t.Fatalf("in-memory value should survive Clear, got %q", got)
	}
}

func TestResetRestoresDefaultsWithoutTouchingSnapshot(t *testing.T) {
	kv := state.NewMemoryKV()
	store := state.NewStore("Hades", kv)
	store.Seed(testTemplate(), nil, nil)
	store.Set(template.FieldDevice, "ROG Ally")
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	store.Reset(testTemplate())
	if got, _ := store.Get(template.FieldDevice); got != "Steam Deck" {
		t.Fatalf("device after reset = %q, want template default", got)
	}
	if _, ok := kv.Get("gameReportForm-Hades"); !ok {
		t.Fatal("Reset should leave the snapshot alone")
	}
}

func TestManualInputModeRoundTrip(t *testing.T) {
	kv := state.NewMemoryKV()
	store := state.NewStore("Hades", kv)

	if store.ManualInputMode() {
		t.Fatal("manual input mode should default to false")
	}
	store.SetManualInputMode(true)
	if !store.ManualInputMode() {
		t.Fatal("manual input mode should persist true")
	}
	if _, ok := kv.Get("gameReportForm-Hades-manualInputMode"); !ok {
		t.Fatal("preference should be stored under its own key")
	}

	// The preference survives snapshot clearing.
	store.Clear()
	if !store.ManualInputMode() {
		t.Fatal("Clear should not drop the preference")
	}
}

func TestKeysAreScopedPerGame(t *testing.T) {
	kv := state.NewMemoryKV()
	hades := state.NewStore("Hades", kv)
	hades.Seed(testTemplate(), nil, nil)
	hades.Set(template.FieldGameName, "Hades")
	if err := hades.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	celeste := state.NewStore("Celeste", kv)
	if _, ok := celeste.Restore(); ok {
		t.Fatal("Celeste must not see the Hades draft")
	}
}

func TestSubscribersObserveMutations(t *testing.T) {
	store := state.NewStore("Hades", state.NewMemoryKV())
	var gotField, gotValue string
	store.Subscribe(func(fieldID, value string) {
		gotField, gotValue = fieldID, value
	})

	store.Set(template.FieldGameName, "Hades")
	if gotField != template.FieldGameName || gotValue != "Hades" {
		t.Fatalf("subscriber saw (%q, %q)", gotField, gotValue)
	}
}
