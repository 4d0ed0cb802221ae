package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadLayout decodes a JSON layout document from r.
//
// The input must be a JSON object with "room", "furniture" and "openings"
// fields:
//
//	{
//	  "room": {"width": 400, "height": 350},
//	  "furniture": [{"name": "Bed", "width": 140, "height": 200}],
//	  "openings": [{"type": "door", "wall": "bottom", "position": 150, "size": 90}]
//	}
//
// Categories are assigned from item names and the layout is validated;
// malformed documents return an error rather than a partially defaulted
// layout. ReadLayout does not close r.
func ReadLayout(r io.Reader) (Layout, error) {
	var l Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return Layout{}, fmt.Errorf("decode: %w", err)
	}
	l.Normalize()
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// ReadLayoutFile reads a JSON layout file at path.
func ReadLayoutFile(path string) (Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return Layout{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	l, err := ReadLayout(f)
	if err != nil {
		return Layout{}, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// WriteLayout encodes l as indented JSON to w. The output can be re-read
// with [ReadLayout] for round-trip processing.
func WriteLayout(l Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteLayoutFile writes l to a JSON file at path.
func WriteLayoutFile(l Layout, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteLayout(l, f)
}

// MarshalLayout returns the canonical JSON encoding of l, used for cache
// keys and API responses.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.Marshal(l)
}
