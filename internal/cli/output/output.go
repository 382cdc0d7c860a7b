// Package output prints command results as text, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	Text = "text"
	JSON = "json"
	YAML = "yaml"
)

// AddFlag registers --output/-o on cmd
func AddFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", Text, "Output format: text, json or yaml")
}

// Format reads and checks the --output flag
func Format(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case Text, JSON, YAML:
		return format, nil
	default:
		return "", fmt.Errorf("unknown output format %q (text, json or yaml)", format)
	}
}

// Write prints v in the given format; text falls back to the text callback
func Write(w io.Writer, format string, v interface{}, text func(io.Writer) error) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}
