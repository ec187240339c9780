package settings_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"slidesmith/internal/config"
	"slidesmith/internal/services"
	"slidesmith/internal/settings"
)

func newResolver(t *testing.T) (*settings.Resolver, *settings.Store) {
	t.Helper()
	store, err := settings.OpenStore(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	cfg := config.Default()
	return settings.NewResolver(&cfg, store), store
}

func TestOverrideWinsOverEnvironment(t *testing.T) {
	resolver, _ := newResolver(t)
	ctx := context.Background()

	for _, def := range settings.Registry {
		if def.Kind != settings.KindInt {
			continue
		}
		t.Setenv(string(def.Key), "99")
		if err := resolver.SetOverride(ctx, def.Key, "42"); err != nil {
			t.Fatalf("set override %s: %v", def.Key, err)
		}
		value, err := resolver.Resolve(ctx, def.Key)
		if err != nil {
			t.Fatalf("resolve %s: %v", def.Key, err)
		}
		if value.Raw != "42" || value.Source != settings.SourceOverride {
			t.Fatalf("%s: expected override 42, got %q from %s", def.Key, value.Raw, value.Source)
		}
	}
}

func TestEnvironmentWinsOverDefault(t *testing.T) {
	resolver, _ := newResolver(t)
	ctx := context.Background()

	t.Setenv(string(settings.KeyImageDuration), `"15"`)
	value, err := resolver.Resolve(ctx, settings.KeyImageDuration)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if value.Raw != "15" || value.Source != settings.SourceEnvironment {
		t.Fatalf("expected environment value 15, got %q from %s", value.Raw, value.Source)
	}
}

func TestInvalidEnvironmentFallsBackToDefault(t *testing.T) {
	resolver, _ := newResolver(t)
	ctx := context.Background()

	t.Setenv(string(settings.KeyImageDuration), "not-a-number")
	value, err := resolver.Resolve(ctx, settings.KeyImageDuration)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if value.Source != settings.SourceDefault {
		t.Fatalf("expected fallback to default, got %s", value.Source)
	}
}

func TestSetOverrideRejectsUnknownKey(t *testing.T) {
	resolver, store := newResolver(t)
	ctx := context.Background()

	err := resolver.SetOverride(ctx, settings.Key("NOT_A_SETTING"), "1")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	overrides, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(overrides) != 0 {
		t.Fatalf("store must stay unchanged on rejection, got %v", overrides)
	}
}

func TestSetOverrideValidatesByKind(t *testing.T) {
	resolver, _ := newResolver(t)
	ctx := context.Background()

	tests := []struct {
		key   settings.Key
		value string
		ok    bool
	}{
		{settings.KeyImageDuration, "12", true},
		{settings.KeyImageDuration, "0", false},
		{settings.KeyImageDuration, "-3", false},
		{settings.KeyEnableTimer, "TRUE", true},
		{settings.KeyEnableTimer, "yes", false},
		{settings.KeyImageSource, "Nextcloud", true},
		{settings.KeyImageSource, "ftp", false},
		{settings.KeyCronSchedule, "30 2 * * 1", true},
		{settings.KeyCronSchedule, "whenever", false},
		{settings.KeyTimerPosition, "bottom-right", true},
		{settings.KeyTimerPosition, "center", false},
		{settings.KeyNtfyTopic, "builds", true},
		{settings.KeyNtfyTopic, "   ", false},
	}
	for _, tc := range tests {
		err := resolver.SetOverride(ctx, tc.key, tc.value)
		if tc.ok && err != nil {
			t.Fatalf("SetOverride(%s, %q) unexpectedly failed: %v", tc.key, tc.value, err)
		}
		if !tc.ok {
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("SetOverride(%s, %q) expected ErrValidation, got %v", tc.key, tc.value, err)
			}
		}
	}
}

func TestSetOverrideNormalizesCase(t *testing.T) {
	resolver, _ := newResolver(t)
	ctx := context.Background()

	if err := resolver.SetOverride(ctx, settings.KeyEnableTimer, "True"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, err := resolver.Resolve(ctx, settings.KeyEnableTimer)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if value.Raw != "true" {
		t.Fatalf("expected normalized boolean, got %q", value.Raw)
	}
}

func TestClearAllRestoresDefaults(t *testing.T) {
	resolver, _ := newResolver(t)
	ctx := context.Background()

	if err := resolver.SetOverride(ctx, settings.KeyImageDuration, "3"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := resolver.SetOverride(ctx, settings.KeyNtfyTopic, "builds"); err != nil {
		t.Fatalf("set: %v", err)
	}

	cleared, err := resolver.ClearAll(ctx)
	if err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if cleared != 2 {
		t.Fatalf("expected 2 overrides cleared, got %d", cleared)
	}

	for _, def := range settings.Registry {
		value, err := resolver.Resolve(ctx, def.Key)
		if err != nil {
			t.Fatalf("resolve %s: %v", def.Key, err)
		}
		if value.Source == settings.SourceOverride {
			t.Fatalf("%s still resolves from override after ClearAll", def.Key)
		}
	}
}

func TestClearedOverrideIsVisibleImmediately(t *testing.T) {
	resolver, _ := newResolver(t)
	ctx := context.Background()

	if err := resolver.SetOverride(ctx, settings.KeyTargetDuration, "300"); err != nil {
		t.Fatalf("set: %v", err)
	}
	removed, err := resolver.ClearOverride(ctx, settings.KeyTargetDuration)
	if err != nil || !removed {
		t.Fatalf("clear: removed=%v err=%v", removed, err)
	}
	value, err := resolver.Resolve(ctx, settings.KeyTargetDuration)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if value.Source == settings.SourceOverride {
		t.Fatal("cleared override must not be observed by a subsequent read")
	}
}

func TestSnapshotTypedAccessors(t *testing.T) {
	resolver, _ := newResolver(t)
	ctx := context.Background()

	if err := resolver.SetOverride(ctx, settings.KeyTimerMinutes, "8"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := resolver.SetOverride(ctx, settings.KeyEnableTimer, "true"); err != nil {
		t.Fatalf("set: %v", err)
	}

	snap, err := resolver.ResolveAll(ctx)
	if err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	if snap.Int(settings.KeyTimerMinutes) != 8 {
		t.Fatalf("Int = %d, want 8", snap.Int(settings.KeyTimerMinutes))
	}
	if !snap.Bool(settings.KeyEnableTimer) {
		t.Fatal("Bool = false, want true")
	}
	if snap.Source(settings.KeyTimerMinutes) != settings.SourceOverride {
		t.Fatalf("Source = %s, want override", snap.Source(settings.KeyTimerMinutes))
	}
	if snap.Source(settings.KeyImageSource) != settings.SourceDefault {
		t.Fatalf("Source = %s, want default", snap.Source(settings.KeyImageSource))
	}
}

func TestOverridesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.db")
	ctx := context.Background()
	cfg := config.Default()

	store, err := settings.OpenStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	resolver := settings.NewResolver(&cfg, store)
	if err := resolver.SetOverride(ctx, settings.KeyImageDuration, "7"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store, err = settings.OpenStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()
	resolver = settings.NewResolver(&cfg, store)
	value, err := resolver.Resolve(ctx, settings.KeyImageDuration)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if value.Raw != "7" || value.Source != settings.SourceOverride {
		t.Fatalf("expected persisted override 7, got %q from %s", value.Raw, value.Source)
	}
}
