package generator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var datasetSchema = jsonschema.MustCompileString("dataset.json", `{
	"definitions": {
		"id": {"type": "string", "minLength": 1, "pattern": "\\S"}
	},
	"type": "object",
	"properties": {
		"hubs": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {"hubId": {"$ref": "#/definitions/id"}, "name": {"$ref": "#/definitions/id"}},
				"required": ["hubId", "name"]
			}
		},
		"connections": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {"a": {"$ref": "#/definitions/id"}, "b": {"$ref": "#/definitions/id"}},
				"required": ["a", "b"]
			}
		}
	},
	"required": ["hubs"]
}`)

// ErrInvalidDataset is returned when a dataset file does not match the schema.
var ErrInvalidDataset = errors.New("invalid dataset")

// Encode writes the dataset as indented JSON.
func Encode(w io.Writer, dataset Dataset) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(dataset); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return nil
}

// WriteDataset serializes the dataset to path, creating parent directories.
func WriteDataset(dataset Dataset, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if err := Encode(file, dataset); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Decode validates raw dataset JSON and decodes it.
func Decode(r io.Reader) (Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return Dataset{}, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	if err := datasetSchema.Validate(v); err != nil {
		return Dataset{}, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}

	var dataset Dataset
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&dataset); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	return dataset, nil
}

// LoadDataset reads and validates the dataset file at path.
func LoadDataset(path string) (Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	dataset, err := Decode(file)
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return dataset, nil
}
