package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

func UnmarshalResponse[T any](response []byte, v *T) error {
	if len(response) == 0 {
		return errors.New("empty json response")
	}

	err := json.Unmarshal(response, &v)
	if err != nil {
		return fmt.Errorf(
			"error while unmarshal: %w, response: %s",
			err,
			response,
		)
	}

	return nil
}

// UnmarshalByExtension decodes yaml for .yaml/.yml paths and json otherwise.
func UnmarshalByExtension[T any](path string, contents []byte, v *T) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if len(contents) == 0 {
			return errors.New("empty yaml document")
		}
		if err := yaml.Unmarshal(contents, v); err != nil {
			return fmt.Errorf("error while unmarshal yaml %s: %w", path, err)
		}
		return nil
	default:
		return UnmarshalResponse(contents, v)
	}
}
