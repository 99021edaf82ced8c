package engine

import (
	"bytes"
	"context"
	"io"
	"path/filepath"

	"github.com/datenblick/datenblick/pkg/api"
	"github.com/datenblick/datenblick/pkg/observability"
	"github.com/datenblick/datenblick/pkg/sandbox"
)

// StageDataset uploads the dataset into the session's working directory and
// returns the handle whose SandboxPath the generated code must use to read
// the file. The path is always relative to the interpreter's working
// directory ("./<name>"); the same string is embedded into the system prompt
// so that staging and prompting can never disagree about the location.
func StageDataset(ctx context.Context, sess *sandbox.Session, name string, dataset io.Reader) (api.DatasetHandle, error) {
	// Strip any directory components from client-supplied names so the
	// file always lands directly in the working directory. Base can still
	// come out as a directory reference for degenerate names.
	base := filepath.Base(name)
	if base == "." || base == ".." || base == "/" || base == "" {
		return api.DatasetHandle{}, api.NewInvalidRequestError("dataset", "dataset name is missing or invalid")
	}

	data, err := io.ReadAll(dataset)
	if err != nil {
		return api.DatasetHandle{}, api.NewStagingError("reading dataset: " + err.Error())
	}

	path := "./" + base
	if err := sess.WriteFile(ctx, path, bytes.NewReader(data)); err != nil {
		return api.DatasetHandle{}, err
	}
	observability.DatasetBytesStaged.Add(float64(len(data)))

	return api.DatasetHandle{SandboxPath: path}, nil
}
