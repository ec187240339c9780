package bot

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"slidesmith/internal/preflight"
	"slidesmith/internal/settings"
	"slidesmith/internal/workflow"
)

// rendered is a reply with a plain-text fallback and an HTML alternative.
type rendered struct {
	plain string
	html  string
}

func renderHelp() rendered {
	var plain, htmlBody strings.Builder
	plain.WriteString("Commands:\n")
	htmlBody.WriteString("<b>Commands</b><ul>")
	for _, line := range [][2]string{
		{"!rebuild", "start a build now"},
		{"!status", "show daemon and build status"},
		{"!set KEY VALUE", "override a setting"},
		{"!get KEY", "show one effective setting"},
		{"!get all", "show every effective setting"},
		{"!config", "list stored overrides"},
		{"!defaults", "clear all overrides"},
		{"!help", "this text"},
	} {
		fmt.Fprintf(&plain, "  %-16s %s\n", line[0], line[1])
		fmt.Fprintf(&htmlBody, "<li><code>%s</code> — %s</li>", html.EscapeString(line[0]), html.EscapeString(line[1]))
	}
	htmlBody.WriteString("</ul>")
	return rendered{plain: plain.String(), html: htmlBody.String()}
}

func renderStatus(status workflow.Status, checks []preflight.Result) rendered {
	var plain, htmlBody strings.Builder

	if status.Running {
		elapsed := time.Since(status.StartedAt).Round(time.Second)
		fmt.Fprintf(&plain, "Building (%s trigger, %s elapsed)\n", status.Trigger, elapsed)
		fmt.Fprintf(&plain, "Stage: %s", status.Progress.Stage)
		if status.Progress.Detail != "" {
			fmt.Fprintf(&plain, " — %s", status.Progress.Detail)
		}
		plain.WriteString("\n")

		fmt.Fprintf(&htmlBody, "<b>Building</b> (%s trigger, %s elapsed)<br/>", status.Trigger, elapsed)
		fmt.Fprintf(&htmlBody, "Stage: <code>%s</code>", status.Progress.Stage)
		if status.Progress.Detail != "" {
			fmt.Fprintf(&htmlBody, " — %s", html.EscapeString(status.Progress.Detail))
		}
		htmlBody.WriteString("<br/>")
	} else {
		plain.WriteString("Idle\n")
		htmlBody.WriteString("<b>Idle</b><br/>")
	}

	if last := status.Last; last != nil {
		line := fmt.Sprintf("Last build: %s (%s, %s trigger, %s)",
			last.Outcome, last.FinishedAt.Format("2006-01-02 15:04"), last.Trigger, last.Elapsed().Round(time.Second))
		if last.Outcome == "failure" {
			line += fmt.Sprintf("\n  failed at %s: %s", last.FailedStage, last.Error)
		} else if last.Track != "" {
			line += fmt.Sprintf("\n  %d slides x%d, music %s", last.SlideCount, last.Repeats, last.Track)
		}
		plain.WriteString(line + "\n")
		htmlBody.WriteString(html.EscapeString(line) + "<br/>")
	}

	if !status.NextRun.IsZero() {
		fmt.Fprintf(&plain, "Next scheduled build: %s (%s)\n",
			status.NextRun.Format("Mon 2006-01-02 15:04"), status.Schedule)
		fmt.Fprintf(&htmlBody, "Next scheduled build: %s (<code>%s</code>)<br/>",
			status.NextRun.Format("Mon 2006-01-02 15:04"), html.EscapeString(status.Schedule))
	}
	var failing []preflight.Result
	for _, check := range checks {
		if !check.Passed {
			failing = append(failing, check)
		}
	}
	if len(failing) > 0 {
		plain.WriteString("Failing checks:\n")
		htmlBody.WriteString("<b>Failing checks</b><ul>")
		for _, check := range failing {
			fmt.Fprintf(&plain, "  %s: %s\n", check.Name, check.Detail)
			fmt.Fprintf(&htmlBody, "<li>%s: %s</li>",
				html.EscapeString(check.Name), html.EscapeString(check.Detail))
		}
		htmlBody.WriteString("</ul>")
	}

	fmt.Fprintf(&plain, "Uptime: %s", status.Uptime.Round(time.Second))
	fmt.Fprintf(&htmlBody, "Uptime: %s", status.Uptime.Round(time.Second))

	return rendered{plain: plain.String(), html: htmlBody.String()}
}

func renderSnapshot(snap settings.Snapshot) rendered {
	var plain, htmlBody strings.Builder
	htmlBody.WriteString("<b>Effective settings</b>")

	for _, group := range settings.Groups() {
		fmt.Fprintf(&plain, "%s:\n", group)
		fmt.Fprintf(&htmlBody, "<br/><i>%s</i><ul>", html.EscapeString(group))
		for _, def := range settings.Registry {
			if def.Group != group {
				continue
			}
			value := snap.Value(def.Key)
			display := value.Raw
			if display == "" {
				display = "(unset)"
			}
			fmt.Fprintf(&plain, "  %-24s %s [%s]\n", def.Key, display, value.Source)
			fmt.Fprintf(&htmlBody, "<li><code>%s</code> = %s <i>[%s]</i></li>",
				def.Key, html.EscapeString(display), value.Source)
		}
		htmlBody.WriteString("</ul>")
	}
	return rendered{plain: plain.String(), html: htmlBody.String()}
}

func renderOverrides(overrides map[settings.Key]string) rendered {
	if len(overrides) == 0 {
		text := "No overrides stored. All settings come from the environment or defaults."
		return rendered{plain: text, html: html.EscapeString(text)}
	}

	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)

	var plain, htmlBody strings.Builder
	plain.WriteString("Stored overrides:\n")
	htmlBody.WriteString("<b>Stored overrides</b><ul>")
	for _, key := range keys {
		fmt.Fprintf(&plain, "  %-24s %s\n", key, overrides[settings.Key(key)])
		fmt.Fprintf(&htmlBody, "<li><code>%s</code> = %s</li>", key, html.EscapeString(overrides[settings.Key(key)]))
	}
	htmlBody.WriteString("</ul>")
	return rendered{plain: plain.String(), html: htmlBody.String()}
}
