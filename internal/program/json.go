package program

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// unmarshalJSONUseNumber decodes b keeping numbers exact, then turns every
// json.Number into an int64, or a float64 when it has a fraction or exponent.
func unmarshalJSONUseNumber(b []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.UseNumber()

	var v any
	if err := decoder.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeNumbers(v)
}

func normalizeNumbers(v any) (any, error) {
	switch vv := v.(type) {
	case map[string]any:
		for key, value := range vv {
			n, err := normalizeNumbers(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			vv[key] = n
		}
		return vv, nil

	case []any:
		for i, value := range vv {
			n, err := normalizeNumbers(value)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			vv[i] = n
		}
		return vv, nil

	case json.Number:
		if !strings.ContainsAny(vv.String(), ".eE") {
			return vv.Int64()
		}
		return vv.Float64()

	default:
		return v, nil
	}
}
