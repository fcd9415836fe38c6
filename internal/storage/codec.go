package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// record wraps every persisted payload with its versions
type record[T any] struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
	Data          T   `json:"data"`
}

// Encode serializes v inside a versioned record
func Encode[T any](v T) ([]byte, error) {
	return json.Marshal(record[T]{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
		Data:          v,
	})
}

// Decode reads a versioned record, rejecting other versions
func Decode[T any](data []byte) (T, error) {
	var r record[T]
	var zero T
	if err := json.Unmarshal(data, &r); err != nil {
		return zero, err
	}
	if r.SchemaVersion != CurrentSchemaVersion || r.CodecVersion != CurrentCodecVersion {
		return zero, fmt.Errorf("%w: schema %d codec %d", ErrVersionMismatch, r.SchemaVersion, r.CodecVersion)
	}
	return r.Data, nil
}
