// Package cdc decodes flattened Debezium change records and maps them onto
// analytical-store rows.
package cdc

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// metadataPrefix marks CDC bookkeeping fields added by the unwrap SMT.
const metadataPrefix = "__"

// Record is a flattened Debezium change record: the row payload plus
// optional CDC metadata fields.
type Record map[string]any

// Decode parses a JSON-encoded change record. A nil or empty value (Kafka
// tombstone) decodes to a nil Record without error.
func Decode(value []byte) (Record, error) {
	if len(value) == 0 {
		return nil, nil
	}
	var rec Record
	if err := json.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("decode change record: %w", err)
	}
	return rec, nil
}

// Op returns the CDC operation marker, checking both the SMT-prefixed and
// plain field names. Empty string when no marker is present.
func (r Record) Op() string {
	for _, key := range []string{"__op", "op"} {
		if v, ok := r[key].(string); ok {
			return v
		}
	}
	return ""
}

// OpAccepted reports whether a record with the given operation marker should
// be replicated. Creates, updates, and snapshot reads are accepted; deletes
// and anything unknown are skipped. An absent marker is treated as a create.
func OpAccepted(op string) bool {
	switch op {
	case "", "c", "u", "r":
		return true
	default:
		return false
	}
}

// StripMetadata returns a copy of the record without CDC metadata fields.
func (r Record) StripMetadata() Record {
	out := make(Record, len(r))
	for k, v := range r {
		if strings.HasPrefix(k, metadataPrefix) {
			continue
		}
		out[k] = v
	}
	return out
}
