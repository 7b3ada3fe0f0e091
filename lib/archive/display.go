// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package archive

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles for catalog rendering. Deploys and clean trees render green;
// rollbacks and dirty trees render red so they stand out in a listing.
var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// stateStyle picks the style for a clean/dirty or deploy/rollback
// token.
func stateStyle(value, goodValue string) lipgloss.Style {
	if value == goodValue {
		return goodStyle
	}
	return badStyle
}

// FormatList renders catalog entries as an aligned table: deploy
// date, type, short revision, tree state, and full name. Column
// widths are computed on the plain text before styling so ANSI codes
// do not break alignment.
func FormatList(entries []Entry) string {
	headers := []string{"Deploy Date", "Type", "Git SHA", "Git State", "Name"}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		formatted, err := entry.Name.Format()
		if err != nil {
			// Entries come from Parse, so Format cannot fail; fall
			// back to the key rather than dropping the row.
			formatted = entry.Key
		}
		rows = append(rows, []string{
			entry.Meta.DeployDate,
			entry.Meta.DeployType,
			entry.Meta.GitSHAShort,
			entry.Meta.GitState,
			formatted,
		})
	}

	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Found %d archives:\n\n", len(entries))
	for i, header := range headers {
		builder.WriteString(headerStyle.Render(pad(header, widths[i])))
		builder.WriteString("  ")
	}
	builder.WriteString("\n")
	for _, row := range rows {
		builder.WriteString(pad(row[0], widths[0]))
		builder.WriteString("  ")
		builder.WriteString(stateStyle(row[1], "deploy").Render(pad(row[1], widths[1])))
		builder.WriteString("  ")
		builder.WriteString(pad(row[2], widths[2]))
		builder.WriteString("  ")
		builder.WriteString(stateStyle(row[3], StateClean).Render(pad(row[3], widths[3])))
		builder.WriteString("  ")
		builder.WriteString(nameStyle.Render(row[4]))
		builder.WriteString("\n")
	}
	return builder.String()
}

// FormatMetadata renders one archive's full metadata as an aligned
// key/value listing.
func FormatMetadata(key string, meta Metadata) string {
	fields := meta.Fields()
	names := make([]string, 0, len(fields))
	maxLen := 0
	for name := range fields {
		names = append(names, name)
		if len(name) > maxLen {
			maxLen = len(name)
		}
	}
	sort.Strings(names)

	var builder strings.Builder
	fmt.Fprintf(&builder, "Metadata for archive: %s\n", nameStyle.Render(key))
	for _, name := range names {
		fmt.Fprintf(&builder, "* %s %s\n",
			pad(name+":", maxLen+1), goodStyle.Render(fields[name]))
	}
	return builder.String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
