package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

var errUnknownOutputFormat = errors.New("unknown output format")

// Color variables for consistent styling across all commands.
var (
	colorHeader    = color.New(color.FgWhite, color.Bold)
	colorEnabled   = color.New(color.FgGreen)
	colorDisabled  = color.New(color.Faint)
	colorPortLoop  = color.New(color.FgCyan)
	colorPortTCP   = color.New(color.FgBlue)
	colorPortRDMA  = color.New(color.FgMagenta)
	colorPortFC    = color.New(color.FgYellow)
)

// portKindBadge returns a colored port-type discriminator.
func portKindBadge(kind string) string {
	switch kind {
	case "loop":
		return colorPortLoop.Sprint("loop")
	case "tcp":
		return colorPortTCP.Sprint("tcp")
	case "rdma":
		return colorPortRDMA.Sprint("rdma")
	case "fc":
		return colorPortFC.Sprint("fc")
	default:
		return kind
	}
}

// enabledBadge colors a boolean enable flag.
func enabledBadge(enabled bool) string {
	if enabled {
		return colorEnabled.Sprint("enabled")
	}
	return colorDisabled.Sprint("disabled")
}

// newStyledTable creates a pre-configured go-pretty table with StyleLight
// base, upper-cased left-aligned headers, no border, and no row separators.
func newStyledTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)

	style := table.StyleLight
	style.Options.SeparateRows = false
	style.Options.DrawBorder = false
	style.Options.SeparateColumns = true
	style.Format.Header = text.FormatUpper
	style.Format.HeaderAlign = text.AlignLeft
	t.SetStyle(style)

	return t
}

func renderTable(t table.Writer) {
	t.Render()
}

// renderStructured renders v as YAML or JSON according to format,
// returning errUnknownOutputFormat for anything else.
func renderStructured(format string, v any) error {
	switch format {
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}
		_, err = fmt.Println(string(data))
		return err
	default:
		return fmt.Errorf("%w: %q", errUnknownOutputFormat, format)
	}
}
