package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/HDA-AWA/roomplan/pkg/validate"
)

// WriteReport writes a validation report as plain text. The section order
// matches the report buckets: critical first, accessibility, safety,
// usability, then everything else.
func WriteReport(w io.Writer, r validate.Report) error {
	if r.Total == 0 {
		_, err := fmt.Fprintln(w, "Compliant: no issues found.")
		return err
	}

	if _, err := fmt.Fprintf(w, "Found %d issue(s), score %d.\n", r.Total, r.Score); err != nil {
		return err
	}

	sections := []struct {
		name  string
		viols []validate.Violation
	}{
		{"Critical", r.Critical},
		{"Accessibility", r.Accessibility},
		{"Safety", r.Safety},
		{"Usability", r.Usability},
		{"Other", r.Other},
	}

	for _, s := range sections {
		if len(s.viols) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s (%d):\n", s.name, len(s.viols)); err != nil {
			return err
		}
		for _, v := range s.viols {
			if _, err := fmt.Fprintf(w, "  - [%s] %s\n", v.Severity, v.Message); err != nil {
				return err
			}
		}
	}
	return nil
}

// Report renders a validation report to a byte slice.
func Report(r validate.Report) []byte {
	var buf bytes.Buffer
	_ = WriteReport(&buf, r)
	return buf.Bytes()
}
