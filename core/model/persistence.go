package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/mqwu/photon-ml/pkg/errors"
)

// SaveModel writes a fitted model to a file with gob encoding. Exported
// fields only; the StateManager participates through its public fields.
func SaveModel(model interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "model: failed to create file")
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(model); err != nil {
		return errors.Wrap(err, "model: failed to encode model")
	}
	return nil
}

// LoadModel reads a model previously written by SaveModel into model, which
// must be a pointer to the same concrete type.
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "model: failed to open file")
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(model); err != nil {
		return errors.Wrap(err, "model: failed to decode model")
	}
	return nil
}

// SaveModelToWriter gob-encodes a model to the writer.
func SaveModelToWriter(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return errors.Wrap(err, "model: failed to encode model")
	}
	return nil
}

// LoadModelFromReader gob-decodes a model from the reader.
func LoadModelFromReader(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return errors.Wrap(err, "model: failed to decode model")
	}
	return nil
}
