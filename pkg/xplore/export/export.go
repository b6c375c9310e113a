// Package export writes the relation table in tabular and JSON formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cognicore/xplore/pkg/xplore/internalerr"
	"github.com/cognicore/xplore/pkg/xplore/xbrl"
)

// Format is an output encoding
type Format string

const (
	CSV   Format = "csv"
	JSON  Format = "json"
	JSONL Format = "jsonl"
)

// Formats lists the supported formats.
var Formats = []Format{CSV, JSON, JSONL}

// ParseFormat returns the format named s, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown format %q", internalerr.ErrInvalidInput, s)
}

// Write encodes rows to w.
func Write(w io.Writer, f Format, rows []xbrl.Row) error {
	switch f {
	case CSV:
		return writeCSV(w, rows)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if rows == nil {
			rows = []xbrl.Row{}
		}
		return enc.Encode(rows)
	case JSONL:
		enc := json.NewEncoder(w)
		for _, r := range rows {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: unknown format %q", internalerr.ErrInvalidInput, f)
}

func writeCSV(w io.Writer, rows []xbrl.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(xbrl.Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteConcepts encodes a concept catalog to w. CSV uses the concept
// field names as header.
func WriteConcepts(w io.Writer, f Format, concepts []xbrl.Concept) error {
	switch f {
	case CSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"ID", "Name", "English Label", "Japanese Label", "Data Type", "Substitution Group", "Balance Type"}); err != nil {
			return err
		}
		for _, c := range concepts {
			if err := cw.Write([]string{c.ID, c.Name, c.English, c.Japanese, c.DataType, c.SubstitutionGroup, c.Balance}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if concepts == nil {
			concepts = []xbrl.Concept{}
		}
		return enc.Encode(concepts)
	case JSONL:
		enc := json.NewEncoder(w)
		for _, c := range concepts {
			if err := enc.Encode(c); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: unknown format %q", internalerr.ErrInvalidInput, f)
}
