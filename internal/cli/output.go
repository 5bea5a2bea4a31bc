// Package cli provides output formatting for the Nuvem client subcommands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nuvemlab/nuvem/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat maps a flag value to an OutputFormat.
func ParseFormat(raw string) (OutputFormat, error) {
	switch raw {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", raw)
	}
}

// WriteCloud writes the aggregated cloud view to w in the given format.
func WriteCloud(w io.Writer, cloud *models.CloudView, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cloud)
	}
	fmt.Fprintf(w, "\n%s\n\n", cloud.Prompt)
	fmt.Fprintf(w, "%d palavras, %d únicas\n\n", cloud.TotalWords, cloud.UniqueWords)
	if len(cloud.Words) == 0 {
		fmt.Fprintln(w, "(sem palavras válidas ainda)")
		return nil
	}
	for i, wc := range cloud.Words {
		fmt.Fprintf(w, "%3d. %-24s %d\n", i+1, wc.Word, wc.Count)
	}
	return nil
}

// WriteEntry confirms an accepted submission.
func WriteEntry(w io.Writer, entry *models.Entry, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entry)
	}
	fmt.Fprintf(w, "Registrado: %q (%s)\n", entry.Text, entry.ID)
	return nil
}

// WriteStatus writes the server status payload.
func WriteStatus(w io.Writer, status map[string]interface{}, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	for _, key := range []string{"entries", "total_words", "unique_words", "public_visible", "admin_enabled", "report_enabled", "uptime"} {
		if v, ok := status[key]; ok {
			fmt.Fprintf(w, "%-16s %v\n", key+":", v)
		}
	}
	return nil
}
