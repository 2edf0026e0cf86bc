package template

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the YAML form of a template.
type File struct {
	Version string `yaml:"version"`
	Rows    []Row  `yaml:"rows"`
}

// columns maps normalized CSV headers onto Row cells.
var columns = map[string]func(*Row) *string{
	"phase":        func(r *Row) *string { return &r.Phase },
	"type":         func(r *Row) *string { return &r.Type },
	"source":       func(r *Row) *string { return &r.Source },
	"width":        func(r *Row) *string { return &r.Width },
	"height":       func(r *Row) *string { return &r.Height },
	"h margin":     func(r *Row) *string { return &r.HMargin },
	"v margin":     func(r *Row) *string { return &r.VMargin },
	"h alignment":  func(r *Row) *string { return &r.HAlignment },
	"v alignment":  func(r *Row) *string { return &r.VAlignment },
	"transparency": func(r *Row) *string { return &r.Transparency },
	"duration":     func(r *Row) *string { return &r.Duration },
	"loop":         func(r *Row) *string { return &r.Loop },
	"effect":       func(r *Row) *string { return &r.Effect },
	"direction":    func(r *Row) *string { return &r.Direction },
	"min size":     func(r *Row) *string { return &r.MinSize },
	"start size":   func(r *Row) *string { return &r.StartSize },
	"speed":        func(r *Row) *string { return &r.Speed },
	"effect loop":  func(r *Row) *string { return &r.EffectLoop },
	"standby":      func(r *Row) *string { return &r.Standby },
	"transition":   func(r *Row) *string { return &r.Transition },
}

// ReadCSV reads template rows. The first record is the header; unknown
// columns are ignored.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("csv header: %w", err)
	}
	cells := make([]func(*Row) *string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		name := strings.ToLower(strings.Join(strings.Fields(h), " "))
		cells[i] = columns[name]
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		var row Row
		for i, v := range rec {
			if i < len(cells) && cells[i] != nil {
				*cells[i](&row) = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadYAML reads the rows of a YAML template.
func ReadYAML(r io.Reader) ([]Row, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return f.Rows, nil
}

// WriteYAML stores rows as a YAML template.
func WriteYAML(rows []Row, path string) error {
	data, err := yaml.Marshal(&File{Version: "1.0", Rows: rows})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadRows reads a .csv, .yaml or .yml template file.
func ReadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".yaml", ".yml":
		return ReadYAML(f)
	}
	return nil, fmt.Errorf("%w: template format %q", ErrUnknownToken, filepath.Ext(path))
}

// Find returns the template file of a target directory, preferring CSV.
func Find(targetDir string) (string, error) {
	for _, name := range []string{"template.csv", "template.yaml", "template.yml"} {
		p := filepath.Join(targetDir, name)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("no template.csv or template.yaml in %s: %w", targetDir, os.ErrNotExist)
}
