package record

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var ErrEmptyPayload = errors.New("record: empty payload")

// Marshal encodes the record as JSON for wire transport and KV persistence.
func Marshal(r Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("record: marshal failed: %w", err)
	}

	return data, nil
}

// Unmarshal decodes a JSON payload into a Record.
func Unmarshal(data []byte) (Record, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("record: unmarshal failed: %w", err)
	}

	return r, nil
}
