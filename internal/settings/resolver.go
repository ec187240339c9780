package settings

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"slidesmith/internal/config"
	"slidesmith/internal/schedule"
	"slidesmith/internal/services"
)

// Source records which layer supplied a resolved value.
type Source int

const (
	SourceDefault Source = iota
	SourceEnvironment
	SourceOverride
)

// String returns the display name for a source.
func (s Source) String() string {
	switch s {
	case SourceOverride:
		return "override"
	case SourceEnvironment:
		return "environment"
	default:
		return "default"
	}
}

// Value is one resolved setting.
type Value struct {
	Key    Key
	Raw    string
	Source Source
}

// Resolver merges the compiled default layer, process environment, and the
// persisted override store into effective values. Reads are read-through:
// every Resolve hits the store, so a committed write is visible to the next
// read with no caching window.
type Resolver struct {
	store    *Store
	defaults map[Key]string
	env      func(string) string
}

// NewResolver builds a resolver whose default layer is derived from the
// static configuration.
func NewResolver(cfg *config.Config, store *Store) *Resolver {
	return &Resolver{
		store:    store,
		defaults: defaultsFromConfig(cfg),
		env:      os.Getenv,
	}
}

func defaultsFromConfig(cfg *config.Config) map[Key]string {
	return map[Key]string{
		KeyImageDuration:       strconv.Itoa(cfg.Slideshow.SlideSeconds),
		KeyTargetDuration:      strconv.Itoa(cfg.Slideshow.TargetSeconds),
		KeyCronSchedule:        cfg.Workflow.CronSchedule,
		KeyImageSource:         cfg.Slideshow.ImageSource,
		KeyNextcloudImagePath:  cfg.Nextcloud.ImagePath,
		KeyNextcloudUploadPath: cfg.Nextcloud.UploadPath,
		KeyMusicSource:         cfg.Music.Source,
		KeyMusicFolder:         cfg.Music.Folder,
		KeyAppendVideoSource:   cfg.AppendVideo.Source,
		KeyAppendVideoPath:     cfg.AppendVideo.Path,
		KeyEnableTimer:         strconv.FormatBool(cfg.Timer.Enabled),
		KeyTimerMinutes:        strconv.Itoa(cfg.Timer.Minutes),
		KeyTimerPosition:       cfg.Timer.Position,
		KeyEnableHeartbeat:     strconv.FormatBool(cfg.Workflow.EnableHeartbeat),
		KeyEnableNtfy:          strconv.FormatBool(cfg.Notifications.Enabled),
		KeyNtfyTopic:           cfg.Notifications.NtfyTopic,
	}
}

// Resolve returns the effective value for a key: override store entry if
// present, then environment variable, then compiled default. A layer whose
// value fails to parse for the key's declared kind is skipped.
func (r *Resolver) Resolve(ctx context.Context, key Key) (Value, error) {
	def, ok := Lookup(key)
	if !ok {
		return Value{}, services.Wrap(services.ErrValidation, "settings", "resolve", fmt.Sprintf("unknown key %q", key), nil)
	}

	if raw, found, err := r.store.Get(ctx, key); err != nil {
		return Value{}, err
	} else if found {
		return Value{Key: key, Raw: raw, Source: SourceOverride}, nil
	}

	if raw := strings.Trim(strings.TrimSpace(r.env(string(key))), `"'`); raw != "" {
		if normalized, err := validateValue(def, raw); err == nil {
			return Value{Key: key, Raw: normalized, Source: SourceEnvironment}, nil
		}
	}

	return Value{Key: key, Raw: r.defaults[key], Source: SourceDefault}, nil
}

// ResolveAll produces an immutable snapshot of every recognized key.
func (r *Resolver) ResolveAll(ctx context.Context) (Snapshot, error) {
	values := make(map[Key]Value, len(Registry))
	for _, def := range Registry {
		value, err := r.Resolve(ctx, def.Key)
		if err != nil {
			return Snapshot{}, err
		}
		values[def.Key] = value
	}
	return Snapshot{values: values}, nil
}

// SetOverride validates and persists an override. The store is left
// unchanged when validation fails.
func (r *Resolver) SetOverride(ctx context.Context, key Key, raw string) error {
	def, ok := Lookup(key)
	if !ok {
		return services.Wrap(services.ErrValidation, "settings", "set", fmt.Sprintf("unknown key %q", key), nil)
	}
	normalized, err := validateValue(def, raw)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, key, normalized)
}

// ClearOverride removes one override. It reports whether one existed.
func (r *Resolver) ClearOverride(ctx context.Context, key Key) (bool, error) {
	if _, ok := Lookup(key); !ok {
		return false, services.Wrap(services.ErrValidation, "settings", "clear", fmt.Sprintf("unknown key %q", key), nil)
	}
	return r.store.Delete(ctx, key)
}

// ClearAll removes every override and returns the number cleared.
func (r *Resolver) ClearAll(ctx context.Context) (int64, error) {
	return r.store.DeleteAll(ctx)
}

// Overrides lists the currently stored overrides.
func (r *Resolver) Overrides(ctx context.Context) (map[Key]string, error) {
	return r.store.List(ctx)
}

func validateValue(def Definition, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", services.Wrap(services.ErrValidation, "settings", "validate", fmt.Sprintf("%s: value must not be empty", def.Key), nil)
	}

	switch def.Kind {
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return "", services.Wrap(services.ErrValidation, "settings", "validate", fmt.Sprintf("%s: expected a positive integer, got %q", def.Key, raw), nil)
		}
		return strconv.Itoa(n), nil
	case KindBool:
		lowered := strings.ToLower(raw)
		if lowered != "true" && lowered != "false" {
			return "", services.Wrap(services.ErrValidation, "settings", "validate", fmt.Sprintf("%s: expected true or false, got %q", def.Key, raw), nil)
		}
		return lowered, nil
	case KindEnum:
		lowered := strings.ToLower(raw)
		for _, allowed := range def.Enum {
			if lowered == allowed {
				return lowered, nil
			}
		}
		return "", services.Wrap(services.ErrValidation, "settings", "validate", fmt.Sprintf("%s: expected one of %s, got %q", def.Key, strings.Join(def.Enum, ", "), raw), nil)
	case KindCron:
		if _, err := schedule.Parse(raw); err != nil {
			return "", services.Wrap(services.ErrValidation, "settings", "validate", fmt.Sprintf("%s: %v", def.Key, err), nil)
		}
		return raw, nil
	case KindPath, KindString:
		return raw, nil
	default:
		return "", services.Wrap(services.ErrValidation, "settings", "validate", fmt.Sprintf("%s: unsupported kind", def.Key), nil)
	}
}

// Snapshot is an immutable effective-configuration view taken at the start
// of a build. Typed accessors assume the stored raw values already passed
// kind validation.
type Snapshot struct {
	values map[Key]Value
}

// SnapshotFromRaw builds a snapshot from raw values, marking every entry as
// a default. Callers supply values that already satisfy the key kinds.
func SnapshotFromRaw(raw map[Key]string) Snapshot {
	values := make(map[Key]Value, len(raw))
	for key, v := range raw {
		values[key] = Value{Key: key, Raw: v, Source: SourceDefault}
	}
	return Snapshot{values: values}
}

// Value returns the resolved entry for a key.
func (s Snapshot) Value(key Key) Value {
	return s.values[key]
}

// String returns the raw resolved value.
func (s Snapshot) String(key Key) string {
	return s.values[key].Raw
}

// Int parses the resolved value as an integer, returning zero when absent.
func (s Snapshot) Int(key Key) int {
	n, err := strconv.Atoi(s.values[key].Raw)
	if err != nil {
		return 0
	}
	return n
}

// Bool parses the resolved value as a boolean.
func (s Snapshot) Bool(key Key) bool {
	return strings.EqualFold(s.values[key].Raw, "true")
}

// Source reports which layer supplied the key.
func (s Snapshot) Source(key Key) Source {
	return s.values[key].Source
}
