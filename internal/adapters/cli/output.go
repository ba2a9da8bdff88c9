// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting and batch
// files but delegate business logic to services.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// Format selects how adapters render results.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates an --output flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

func checkMark() string   { return color.New(color.FgGreen).Sprint("✓") }
func currentMark() string { return color.New(color.FgHiMagenta).Sprint(" ← current") }
func deletedMark() string { return color.New(color.FgRed).Sprint("deleted") }

func idString(id int64) string {
	return color.New(color.FgCyan).Sprint(id)
}

// writeStructured renders v as indented JSON or as YAML.
//
// YAML goes through the JSON encoding so field names match the API and
// numbers keep the exact literal they were stored with.
func writeStructured(out io.Writer, format Format, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if format == FormatJSON {
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle clears the flow style JSON input leaves on collections and the
// quoting it leaves on strings; the encoder re-quotes where YAML needs it.
func blockStyle(n *yaml.Node) {
	switch n.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		n.Style = 0
	case yaml.ScalarNode:
		if n.Style == yaml.DoubleQuotedStyle {
			n.Style = 0
		}
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}
