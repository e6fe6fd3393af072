package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Os helpers abaixo reproduzem as conversões de valores JSON usadas na exibição:
// texto de template, veracidade e coerção numérica.

// decodeRaw decodifica um valor JSON bruto; ok=false quando ausente ou malformado
func decodeRaw(raw json.RawMessage) (interface{}, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return v, true
}

// Truthy indica se o valor seria considerado verdadeiro (ausente, null, false, 0, NaN e "" são falsos)
func Truthy(raw json.RawMessage) bool {
	v, ok := decodeRaw(raw)
	if !ok {
		return false
	}
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0 && !math.IsNaN(val)
	case string:
		return val != ""
	default:
		return true
	}
}

// JSNumber retorna o valor quando ele é um número JSON (strings numéricas não contam)
func JSNumber(raw json.RawMessage) (float64, bool) {
	v, ok := decodeRaw(raw)
	if !ok {
		return 0, false
	}
	n, isNum := v.(float64)
	return n, isNum
}

// Count converte um contador do feed: falsos viram 0, números e strings numéricas são aceitos
func Count(raw json.RawMessage) float64 {
	if !Truthy(raw) {
		return 0
	}
	v, _ := decodeRaw(raw)
	switch val := v.(type) {
	case float64:
		return val
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return n
	case bool:
		return 1
	default:
		return 0
	}
}

// Text converte o valor para texto como numa interpolação de template string
func Text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "undefined"
	}
	v, ok := decodeRaw(raw)
	if !ok {
		return "undefined"
	}
	if v == nil {
		return "null"
	}
	return textOf(v)
}

func textOf(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return FormatNumber(val)
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = textOf(item)
		}
		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}

// FormatNumber formata um número na forma mais curta, com expoente fora de [1e-6, 1e21)
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
