package program

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/while-tools/internal/interpreter"
	"github.com/karupanerura/while-tools/internal/types"
	"github.com/mitchellh/mapstructure"
)

// Manifest is a program together with the state it is expected to end in.
type Manifest struct {
	Program *Program

	// Expect lists the expected final value of each named variable. Names
	// that are not listed are not checked.
	Expect map[string]int32
}

type manifestDef struct {
	Name   string           `mapstructure:"name"`
	Source string           `mapstructure:"source"`
	Expect map[string]int32 `mapstructure:"expect"`
}

func (d *manifestDef) compile() (*Manifest, error) {
	if strings.TrimSpace(d.Source) == "" {
		return nil, fmt.Errorf("source is required in manifest")
	}

	p, err := Compile(d.Name, d.Source)
	if err != nil {
		return nil, err
	}
	return &Manifest{Program: p, Expect: d.Expect}, nil
}

func ParseManifestYAML(r io.Reader) (*Manifest, error) {
	yamlBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	jsonBytes, err := yaml.YAMLToJSON(yamlBytes)
	if err != nil {
		return nil, fmt.Errorf("yaml.YAMLToJSON: %w", err)
	}

	return parseManifestJSONBytes(jsonBytes)
}

func ParseManifestJSON(r io.Reader) (*Manifest, error) {
	jsonBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	return parseManifestJSONBytes(jsonBytes)
}

func parseManifestJSONBytes(b []byte) (*Manifest, error) {
	raw, err := unmarshalJSONUseNumber(b)
	if err != nil {
		return nil, fmt.Errorf("json.Decode: %w", err)
	}

	var def manifestDef
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  strictInt32Hook,
		ErrorUnused: true,
		Result:      &def,
	})
	if err != nil {
		return nil, fmt.Errorf("mapstructure.NewDecoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	return def.compile()
}

// strictInt32Hook refuses numbers that would be truncated or wrapped when
// stored into an int32.
func strictInt32Hook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Int32 {
		return data, nil
	}

	switch v := data.(type) {
	case int64:
		if v < math.MinInt32 || math.MaxInt32 < v {
			return nil, fmt.Errorf("%d overflows a 32-bit integer", v)
		}
	case float64:
		if v != math.Trunc(v) || v < math.MinInt32 || math.MaxInt32 < v {
			return nil, fmt.Errorf("%v is not a 32-bit integer", v)
		}
	}
	return data, nil
}

// Load reads a raw While source (.while) or a manifest (.json, .yaml, .yml).
// A manifest without a name is named after its file.
func Load(filePath string) (*Manifest, error) {
	name := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))

	var parse func(io.Reader) (*Manifest, error)
	switch filepath.Ext(filePath) {
	case ".while":
		parse = func(r io.Reader) (*Manifest, error) {
			b, err := io.ReadAll(r)
			if err != nil {
				return nil, fmt.Errorf("io.ReadAll: %w", err)
			}
			p, err := Compile(name, string(b))
			if err != nil {
				return nil, err
			}
			return &Manifest{Program: p}, nil
		}
	case ".json":
		parse = ParseManifestJSON
	case ".yaml", ".yml":
		parse = ParseManifestYAML
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%q): %w", filePath, err)
	}
	defer f.Close()

	m, err := parse(f)
	if err != nil {
		return nil, err
	}
	if m.Program.Name == "" {
		m.Program.Name = name
	}
	return m, nil
}

// Check executes the program and compares the listed expectations with the
// final state. Unassigned variables read as 0.
func (m *Manifest) Check() (*interpreter.State, error) {
	state, err := m.Program.Execute()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Program.Name, err)
	}
	if len(m.Expect) == 0 {
		return state, nil
	}

	actual := make(map[string]int32, len(m.Expect))
	for name := range m.Expect {
		actual[name] = state.Get(name)
	}
	if diff := cmp.Diff(m.Expect, actual); diff != "" {
		return state, &MismatchError{Name: m.Program.Name, Diff: diff}
	}
	return state, nil
}

// MismatchError reports a final state that differs from the manifest's
// expectations.
type MismatchError struct {
	Name string
	Diff string
}

var _ types.Exception = (*MismatchError)(nil)

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: unexpected final state (-expect +actual):\n%s", e.Name, e.Diff)
}

func (e *MismatchError) Exception() any {
	return types.ExceptionPayload("unexpected final state", map[string]any{
		"name": e.Name,
		"diff": e.Diff,
	}, types.ValueErrorTag)
}
