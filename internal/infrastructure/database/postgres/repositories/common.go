// Package repositories provides PostgreSQL-backed implementations of all
// PrivLens domain repository interfaces.  Every method accepts a
// context.Context and uses parameterised queries exclusively.
package repositories

import (
	"encoding/json"

	"github.com/privlens/privlens/pkg/errors"
)

// mustJSON marshals v for a JSONB column.  The entity types marshalled here
// contain no channels, funcs, or cycles, so failure indicates programmer
// error; an explicit error is still returned rather than panicking.
func mustJSON(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal JSONB value")
	}
	return b, nil
}

// fromJSON unmarshals a JSONB column into dst, tolerating NULL.
func fromJSON(data []byte, dst interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal JSONB value")
	}
	return nil
}
