package policy

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Save writes the artifact to path. The bytes go to a temporary file in the
// same directory first, so a reader never sees a half-written artifact.
func Save(path string, a *Artifact) error {
	data, err := Marshal(a)
	if err != nil {
		return errors.WithMessagef(err, "failed to encode artifact for %q", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create artifact directory %q", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file for %q", path)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "failed to write %q", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "failed to sync %q", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %q", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "failed renaming %q to %q", tmpName, path)
	}
	return nil
}

// Load reads and decodes the artifact at path
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrMissingArtifactFile, "%q", path)
		}
		return nil, errors.Wrapf(err, "failed to read %q", path)
	}
	a, err := Unmarshal(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to load policy from %q", path)
	}
	return a, nil
}
