package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/laborstat-cli/internal/model"
)

// File names under the pipeline state directory.
const (
	ValidateManifestFile = "validate_output.json"
	CleanManifestFile    = "clean_output.json"
	RunManifestFile      = "run_manifest.json"
)

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "store: create dir for %s", path)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "store: marshal %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "store: write %s", path)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "store: read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "store: unmarshal %s", path)
	}
	return nil
}

// WriteValidatedRows writes the full validated set (publishable or not, for
// audit) to a versioned file under dir and returns its path.
func WriteValidatedRows(dir, filename string, rows []model.ValidatedRow) (string, error) {
	path := filepath.Join(dir, filename)
	if err := writeJSON(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

// ReadValidatedRows loads a validated-rows file.
func ReadValidatedRows(path string) ([]model.ValidatedRow, error) {
	var rows []model.ValidatedRow
	if err := readJSON(path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// WriteValidateManifest writes the validate-step manifest to stateDir.
func WriteValidateManifest(stateDir string, m *model.ValidateManifest) error {
	return writeJSON(filepath.Join(stateDir, ValidateManifestFile), m)
}

// ReadValidateManifest loads the validate-step manifest from stateDir.
func ReadValidateManifest(stateDir string) (*model.ValidateManifest, error) {
	var m model.ValidateManifest
	if err := readJSON(filepath.Join(stateDir, ValidateManifestFile), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// WriteCleanManifest writes the clean-step manifest to stateDir.
func WriteCleanManifest(stateDir string, m *model.CleanManifest) error {
	return writeJSON(filepath.Join(stateDir, CleanManifestFile), m)
}

// WriteRunManifest writes the whole-run manifest to stateDir.
func WriteRunManifest(stateDir string, m *model.RunManifest) error {
	return writeJSON(filepath.Join(stateDir, RunManifestFile), m)
}

// ReadRunManifest loads the whole-run manifest from stateDir.
func ReadRunManifest(stateDir string) (*model.RunManifest, error) {
	var m model.RunManifest
	if err := readJSON(filepath.Join(stateDir, RunManifestFile), &m); err != nil {
		return nil, err
	}
	return &m, nil
}
