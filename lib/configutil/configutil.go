package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// localPath returns the override file that sits next to name, config.json5 becomes
// config.local.json5.
func localPath(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

// readLayer decodes one json5 file, found is false if the file is missing or empty.
func readLayer[T any](path string) (layer T, found bool, err error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return layer, false, nil
	}
	if err != nil {
		return layer, false, err
	}
	if len(contents) == 0 {
		return layer, false, nil
	}
	err = json5.Unmarshal(contents, &layer)
	if err != nil {
		return layer, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return layer, true, nil
}

// ReadConfig reads the json5 file at name and applies the fields set in its local
// override (see localPath) on top. An error wrapping os.ErrNotExist is returned if
// neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T
	found := false

	for _, path := range []string{name, localPath(name)} {
		layer, ok, err := readLayer[T](path)
		if err != nil {
			return out, err
		}
		if !ok {
			continue
		}
		if found {
			slog.Info("applying local config overrides", "file", path)
		}
		err = Merge(&out, layer)
		if err != nil {
			return out, fmt.Errorf("merge %s: %w", path, err)
		}
		found = true
	}

	if !found {
		return out, fmt.Errorf("read %s: %w", name, os.ErrNotExist)
	}
	return out, nil
}

// Merge overwrites the fields of dst with every non-zero field of src.
func Merge[T any](dst *T, src T) error {
	return mergo.Merge(dst, src, mergo.WithOverride)
}
