package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"slidesmith/internal/ipc"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 16
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderStatus(status *ipc.StatusResponse, colorize bool) string {
	var lines []string
	lines = append(lines, renderSectionHeader("Daemon", colorize)...)
	if status.Running {
		lines = append(lines, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusError, "stopped", colorize))
	}
	if status.Building {
		detail := status.Stage
		if status.StageDetail != "" {
			detail = fmt.Sprintf("%s (%s)", status.Stage, status.StageDetail)
		}
		lines = append(lines, renderStatusLine("Build", statusInfo, detail, colorize))
	} else {
		lines = append(lines, renderStatusLine("Build", statusOK, "idle", colorize))
	}
	heartbeat := "disabled"
	if status.Heartbeat {
		heartbeat = "enabled"
	}
	lines = append(lines, renderStatusLine("Heartbeat", statusInfo, heartbeat, colorize))
	lines = append(lines, renderStatusLine("Uptime", statusInfo, (time.Duration(status.UptimeSeconds)*time.Second).String(), colorize))

	if len(status.Checks) > 0 {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Checks", colorize)...)
		for _, check := range status.Checks {
			kind := statusOK
			if !check.Passed {
				kind = statusError
			}
			lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
		}
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Schedule", colorize)...)
	lines = append(lines, renderStatusLine("Cron", statusInfo, status.Schedule, colorize))
	if !status.NextRun.IsZero() {
		lines = append(lines, renderStatusLine("Next run", statusInfo, status.NextRun.Local().Format("Mon 2006-01-02 15:04"), colorize))
	}

	if last := status.Last; last != nil {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Last build", colorize)...)
		if last.Outcome == "success" {
			detail := fmt.Sprintf("%d slides x %d passes", last.SlideCount, last.Repeats)
			if last.Track != "" {
				detail += ", music " + last.Track
			}
			lines = append(lines, renderStatusLine("Outcome", statusOK, detail, colorize))
			if last.Output != "" {
				lines = append(lines, renderStatusLine("Output", statusInfo, last.Output, colorize))
			}
		} else {
			detail := last.Error
			if last.FailedStage != "" {
				detail = fmt.Sprintf("%s stage: %s", last.FailedStage, last.Error)
			}
			lines = append(lines, renderStatusLine("Outcome", statusError, detail, colorize))
		}
		lines = append(lines, renderStatusLine("Finished", statusInfo, last.FinishedAt.Local().Format("Mon 2006-01-02 15:04"), colorize))
	}

	return strings.Join(lines, "\n")
}
