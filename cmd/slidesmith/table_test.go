package main

import (
	"strings"
	"testing"

	"slidesmith/internal/ipc"
)

func TestSettingsTableMarksUnsetValues(t *testing.T) {
	out := settingsTable([]ipc.ConfigValue{
		{Key: "IMAGE_DURATION", Value: "10", Source: "default", Group: "slideshow"},
		{Key: "NTFY_TOPIC", Value: "", Source: "default", Group: "notifications"},
	})
	if !strings.Contains(out, "(unset)") {
		t.Fatalf("empty value should render as (unset):\n%s", out)
	}
	if !strings.Contains(out, "IMAGE_DURATION") || !strings.Contains(out, "slideshow") {
		t.Fatalf("missing columns:\n%s", out)
	}
}

func TestOverridesTableSortsKeys(t *testing.T) {
	out := overridesTable(map[string]string{
		"NTFY_TOPIC":     "builds",
		"IMAGE_DURATION": "15",
	})
	if strings.Index(out, "IMAGE_DURATION") > strings.Index(out, "NTFY_TOPIC") {
		t.Fatalf("keys not sorted:\n%s", out)
	}
}

func TestPlanTableRightAlignsValues(t *testing.T) {
	out := planTable([][2]string{
		{"Slides", "24"},
		{"Total length", "600s"},
	})
	if !strings.Contains(out, "Slides") || !strings.Contains(out, "600s") {
		t.Fatalf("rows missing:\n%s", out)
	}
	if !strings.Contains(out, "24 │") {
		t.Fatalf("value column should be right-aligned:\n%s", out)
	}
}
