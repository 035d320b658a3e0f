package cmd

import (
	"encoding/json"
	"fmt"
	"io"
)

// renderJSON writes v as indented JSON. All command output is JSON so it
// pipes cleanly into jq and log collectors.
func renderJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
