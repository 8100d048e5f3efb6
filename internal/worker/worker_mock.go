package worker

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/UnendingLoop/Watermarker/internal/model"
)

type mockWorkerService struct {
	getFn        func(ctx context.Context, id string) (*model.Task, error)
	updateFn     func(ctx context.Context, id string, st model.Status) error
	saveResultFn func(ctx context.Context, t *model.Task) error
	markFailedFn func(ctx context.Context, t *model.Task, cause error) error
}

func (m *mockWorkerService) Get(ctx context.Context, id string) (*model.Task, error) {
	return m.getFn(ctx, id)
}

func (m *mockWorkerService) UpdateStatus(ctx context.Context, id string, st model.Status) error {
	return m.updateFn(ctx, id, st)
}

func (m *mockWorkerService) SaveResult(ctx context.Context, t *model.Task) error {
	return m.saveResultFn(ctx, t)
}

func (m *mockWorkerService) MarkFailed(ctx context.Context, t *model.Task, cause error) error {
	return m.markFailedFn(ctx, t, cause)
}

func (m *mockWorkerService) ResultKey(id, ext string) string {
	return "res/" + id + ext
}

//----------------------------------

// mockStorage keeps objects as local files under root.
type mockStorage struct {
	root        string
	downloadErr error
	uploaded    map[string]string // key -> content type
}

func (m *mockStorage) Download(ctx context.Context, key, path string) error {
	if m.downloadErr != nil {
		return m.downloadErr
	}
	return copyFile(filepath.Join(m.root, key), path)
}

func (m *mockStorage) Upload(ctx context.Context, key, path, contentType string) error {
	if m.uploaded == nil {
		m.uploaded = map[string]string{}
	}
	m.uploaded[key] = contentType
	return copyFile(path, filepath.Join(m.root, key))
}

func copyFile(from, to string) error {
	src, err := os.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(to)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
