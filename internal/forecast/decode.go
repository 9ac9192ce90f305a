package forecast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format is a payload file encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported payload extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// LoadFile reads, decodes and validates a payload file
func LoadFile(path string) (*Payload, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open payload: %w", err)
	}
	defer f.Close()

	p, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Decode reads a payload in the given format and validates it
func Decode(r io.Reader, format Format) (*Payload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	if format == FormatYAML {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, err
		}
	} else if format != FormatJSON {
		return nil, fmt.Errorf("unsupported payload format %q", format)
	}

	var p Payload
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: failed to parse: %v", ErrInvalidPayload, err)
	}
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Encode writes a payload in the given format
func Encode(w io.Writer, p *Payload, format Format) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	switch format {
	case FormatJSON:
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatYAML:
		var tree any
		if err := json.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("failed to convert payload: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return fmt.Errorf("failed to write yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported payload format %q", format)
	}
}

// yamlToJSON decodes YAML into a generic tree and re-encodes it as JSON so
// both formats share one decoding path
func yamlToJSON(data []byte) ([]byte, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("%w: failed to parse yaml: %v", ErrInvalidPayload, err)
	}
	out, err := json.Marshal(normalizeYAML(tree))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to convert yaml: %v", ErrInvalidPayload, err)
	}
	return out, nil
}

func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	case time.Time:
		// Unquoted YAML dates can surface as timestamps
		return t.UTC().Format(time.RFC3339)
	default:
		return v
	}
}
