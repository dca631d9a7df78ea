// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/flowmove/flowmove/lib/artifact"
	"github.com/flowmove/flowmove/lib/localflow"
	"github.com/flowmove/flowmove/lib/migrate"
	"github.com/flowmove/flowmove/lib/platform"
)

// DefaultNameWidth is the display-cell budget for app names in tables.
// CJK characters take two cells each.
const DefaultNameWidth = 40

const timeLayout = "2006-01-02 15:04:05"

// Options configures a Renderer.
type Options struct {
	// NoColor disables styling regardless of the terminal.
	NoColor bool

	// NameWidth bounds app name columns. Defaults to DefaultNameWidth.
	NameWidth int
}

// Renderer formats tables for one output stream. The color profile is
// detected from the stream (TTY, NO_COLOR, TERM) unless NoColor is set.
type Renderer struct {
	nameWidth int

	header lipgloss.Style
	cell   lipgloss.Style
	border lipgloss.Style
	good   lipgloss.Style
	bad    lipgloss.Style
}

// New creates a Renderer for output.
func New(output io.Writer, options Options) *Renderer {
	profile := termenv.Ascii
	if !options.NoColor {
		profile = termenv.NewOutput(output).EnvColorProfile()
	}
	lip := lipgloss.NewRenderer(output, termenv.WithProfile(profile))
	lip.SetColorProfile(profile)

	nameWidth := options.NameWidth
	if nameWidth <= 0 {
		nameWidth = DefaultNameWidth
	}

	return &Renderer{
		nameWidth: nameWidth,
		header:    lip.NewStyle().Bold(true).Padding(0, 1),
		cell:      lip.NewStyle().Padding(0, 1),
		border:    lip.NewStyle().Foreground(lipgloss.Color("8")),
		good:      lip.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("2")),
		bad:       lip.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("1")),
	}
}

// Truncate shortens s to at most width display cells, marking the cut
// with an ellipsis.
func Truncate(s string, width int) string {
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// table renders rows under headers. statusColumn, when non-negative,
// colors each cell in that column by the matching entry of ok.
func (renderer *Renderer) table(headers []string, rows [][]string, statusColumn int, ok []bool) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(renderer.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, column int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return renderer.header
			case column == statusColumn && row >= 0 && row < len(ok):
				if ok[row] {
					return renderer.good
				}
				return renderer.bad
			default:
				return renderer.cell
			}
		}).
		String()
}

// LocalFlows renders a scan of the local cache. The first column is the
// 1-based index used for selection.
func (renderer *Renderer) LocalFlows(records []localflow.Record) string {
	rows := make([][]string, len(records))
	for index := range records {
		record := &records[index]
		rows[index] = []string{
			strconv.Itoa(index + 1),
			Truncate(record.Name(), renderer.nameWidth),
			record.AppID,
			record.UserID,
			record.ModTime.Local().Format(timeLayout),
		}
	}
	return renderer.table([]string{"#", "NAME", "APP ID", "USER", "UPDATED"}, rows, -1, nil)
}

// Apps renders a remote catalog listing.
func (renderer *Renderer) Apps(apps []platform.App) string {
	rows := make([][]string, len(apps))
	for index, app := range apps {
		rows[index] = []string{
			strconv.Itoa(index + 1),
			Truncate(app.AppName, renderer.nameWidth),
			app.AppID,
			app.UpdateTime,
		}
	}
	return renderer.table([]string{"#", "NAME", "APP ID", "UPDATED"}, rows, -1, nil)
}

// Results renders a migration batch followed by its summary line.
func (renderer *Renderer) Results(summary migrate.Summary) string {
	rows := make([][]string, len(summary.Results))
	ok := make([]bool, len(summary.Results))
	for index, result := range summary.Results {
		detail := ""
		if result.Err != nil {
			detail = Truncate(result.Err.Error(), 60)
		}
		if result.Orphaned() {
			detail = "orphaned upload; " + detail
		}
		ok[index] = result.Succeeded()
		rows[index] = []string{
			Truncate(result.Source.Name, renderer.nameWidth),
			result.Identity,
			result.State().String(),
			result.Reached.String(),
			detail,
		}
	}
	return renderer.table([]string{"SOURCE", "NEW ID", "STATE", "REACHED", "DETAIL"}, rows, 2, ok) +
		"\n" + summary.String()
}

// Journal renders journal records, oldest first.
func (renderer *Renderer) Journal(records []migrate.JournalRecord) string {
	rows := make([][]string, len(records))
	ok := make([]bool, len(records))
	for index, record := range records {
		ok[index] = record.State == migrate.Registered.String()
		orphaned := ""
		if record.Orphaned {
			orphaned = "yes"
		}
		rows[index] = []string{
			record.Time.Local().Format(timeLayout),
			record.SourceKind + ":" + record.SourceID,
			record.Destination,
			record.Identity,
			record.State,
			orphaned,
			Truncate(record.Error, 50),
		}
	}
	return renderer.table([]string{"TIME", "SOURCE", "DESTINATION", "NEW ID", "STATE", "ORPHANED", "ERROR"}, rows, 4, ok)
}

// Entries renders an archive's entry list with payload digests.
func (renderer *Renderer) Entries(entries []artifact.Entry) string {
	rows := make([][]string, len(entries))
	for index, entry := range entries {
		digest := entry.Digest.Short()
		size := strconv.FormatUint(entry.Size, 10)
		if entry.Directory {
			digest, size = "", "dir"
		}
		rows[index] = []string{entry.Name, size, digest}
	}
	return renderer.table([]string{"ENTRY", "SIZE", "BLAKE3"}, rows, -1, nil)
}

// Since renders an elapsed duration rounded for display.
func Since(duration time.Duration) string {
	if duration < time.Second {
		return fmt.Sprintf("%dms", duration.Milliseconds())
	}
	return duration.Round(100 * time.Millisecond).String()
}
