package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/solatis/qbfilter/internal/types"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// query is the rendered form of a translated filter.
type query struct {
	SQL  string `json:"sql" yaml:"sql"`
	Args []any  `json:"args" yaml:"args"`
}

// readPayload reads a filter document from path, or from stdin when path
// is empty or "-". Input beyond types.MaxPayloadSize is rejected.
func readPayload(stdin io.Reader, path string) ([]byte, error) {
	var r io.Reader = stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open filter: %w", err)
		}
		defer f.Close()
		r = f
	}

	payload, err := io.ReadAll(io.LimitReader(r, types.MaxPayloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read filter: %w", err)
	}
	if len(payload) > types.MaxPayloadSize {
		return nil, fmt.Errorf("%w: limit %d bytes", types.ErrPayloadTooLarge, types.MaxPayloadSize)
	}
	return payload, nil
}

// writeQuery prints q in the requested format.
func writeQuery(w io.Writer, format string, q query) error {
	if q.Args == nil {
		q.Args = []any{}
	}

	switch format {
	case outputText, "":
		if _, err := fmt.Fprintln(w, q.SQL); err != nil {
			return err
		}
		for i, a := range q.Args {
			if _, err := fmt.Fprintf(w, "  $%d = %s\n", i+1, formatArg(a)); err != nil {
				return err
			}
		}
		return nil
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(q)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(q); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (text, json, yaml)", format)
	}
}

// writeValue prints v as JSON or YAML; text falls back to YAML.
func writeValue(w io.Writer, format string, v any) error {
	if format == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func formatArg(a any) string {
	switch v := a.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case time.Time:
		return v.Format(time.RFC3339)
	case nil:
		return "NULL"
	default:
		return fmt.Sprint(v)
	}
}
