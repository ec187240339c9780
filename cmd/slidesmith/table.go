package main

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"slidesmith/internal/ipc"
)

func newTableWriter(headers ...string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	return tw
}

// settingsTable lays out effective settings with the layer each value came
// from. Empty values render as "(unset)" so they read as deliberate.
func settingsTable(values []ipc.ConfigValue) string {
	tw := newTableWriter("Key", "Value", "Source", "Group")
	for _, val := range values {
		value := val.Value
		if value == "" {
			value = "(unset)"
		}
		tw.AppendRow(table.Row{val.Key, value, val.Source, val.Group})
	}
	return tw.Render()
}

// overridesTable lists stored overrides in key order.
func overridesTable(overrides map[string]string) string {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := newTableWriter("Key", "Value")
	for _, k := range keys {
		tw.AppendRow(table.Row{k, overrides[k]})
	}
	return tw.Render()
}

// planTable lays out the assembly preview with the figures right-aligned.
func planTable(rows [][2]string) string {
	tw := newTableWriter("Plan", "Value")
	for _, row := range rows {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
