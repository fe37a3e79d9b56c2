// Package cliutil holds cephctl's small output/prompt helpers: a table
// renderer over olekukonko/tablewriter and a TOFU-style confirmation
// prompt over manifoldco/promptui, trimmed down from the teacher's
// internal/cli/output and internal/cli/prompt to what a single-cluster
// CLI needs (table/json, no color/yaml layers).
package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Format is an output rendering choice for a cephctl subcommand.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat parses a --output flag value, defaulting to table.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: table, json)", s)
	}
}

// TableRenderer is implemented by data that can describe itself as a
// table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// Print writes data to w in the requested format. For FormatTable, data
// must implement TableRenderer; for FormatJSON it is marshaled as-is.
func Print(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatTable, "":
		renderer, ok := data.(TableRenderer)
		if !ok {
			return fmt.Errorf("cliutil: %T does not implement TableRenderer", data)
		}
		return PrintTable(w, renderer)
	default:
		return fmt.Errorf("cliutil: unknown format %q", format)
	}
}

// PrintTable renders data as a borderless table, matching the teacher's
// internal/cli/output.PrintTable styling.
func PrintTable(w io.Writer, data TableRenderer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(data.Headers())
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, row := range data.Rows() {
		table.Append(row)
	}
	table.Render()
	return nil
}
