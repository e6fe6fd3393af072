package model

import (
	"bytes"
	"encoding/json"
)

// TimestampKind distingue as formas aceitas para um timestamp do feed
type TimestampKind int

const (
	// TimestampAbsent campo ausente ou null
	TimestampAbsent TimestampKind = iota
	// TimestampScalar string, número ou booleano
	TimestampScalar
	// TimestampWrapped objeto, normalmente {"value": ...}
	TimestampWrapped
)

// Timestamp guarda um timestamp em qualquer das formas do feed.
// Unwrap é a única regra de desembrulho usada pelo formatador e pelo cálculo de prazo.
type Timestamp struct {
	kind  TimestampKind
	raw   json.RawMessage
	value json.RawMessage
}

// ScalarTimestamp cria um timestamp escalar a partir de um valor Go
func ScalarTimestamp(v interface{}) Timestamp {
	raw, _ := json.Marshal(v)
	var t Timestamp
	_ = t.UnmarshalJSON(raw)
	return t
}

// WrappedTimestamp cria um timestamp no formato {"value": v}
func WrappedTimestamp(v interface{}) Timestamp {
	raw, _ := json.Marshal(map[string]interface{}{"value": v})
	var t Timestamp
	_ = t.UnmarshalJSON(raw)
	return t
}

// UnmarshalJSON implementa json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*t = Timestamp{kind: TimestampAbsent}
		return nil
	}

	raw := append(json.RawMessage(nil), trimmed...)
	if trimmed[0] != '{' {
		*t = Timestamp{kind: TimestampScalar, raw: raw}
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	*t = Timestamp{kind: TimestampWrapped, raw: raw, value: obj["value"]}
	return nil
}

// MarshalJSON devolve o valor original
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.kind == TimestampAbsent {
		return []byte("null"), nil
	}
	return t.raw, nil
}

// Kind retorna a forma do timestamp
func (t Timestamp) Kind() TimestampKind {
	return t.kind
}

// Present indica se o valor externo é verdadeiro; objetos sempre são
func (t Timestamp) Present() bool {
	switch t.kind {
	case TimestampScalar:
		return Truthy(t.raw)
	case TimestampWrapped:
		return true
	default:
		return false
	}
}

// Unwrap devolve o conteúdo de "value" quando verdadeiro, senão o próprio valor
func (t Timestamp) Unwrap() json.RawMessage {
	if t.kind == TimestampWrapped && Truthy(t.value) {
		return t.value
	}
	return t.raw
}
