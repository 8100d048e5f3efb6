package worker

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/UnendingLoop/Watermarker/internal/pipeline"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var navy = color.NRGBA{R: 10, G: 20, B: 90, A: 255}

func newTestWorker(strg *mockStorage, svc *mockWorkerService) *Worker {
	return &Worker{
		storage:   strg,
		service:   svc,
		processor: pipeline.NewProcessor(zerolog.Nop(), pipeline.Options{}),
	}
}

func putImage(t *testing.T, root, key string, w, h int) {
	t.Helper()
	img := imaging.New(w, h, navy)
	path := filepath.Join(root, key)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, imaging.Save(img, path))
}

func textTask(srcKey string) *model.Task {
	return &model.Task{
		UID:       uuid.New(),
		SourceKey: srcKey,
		Kind:      model.KindText,
		Text:      "Draft",
		FontColor: "red",
		Placement: model.DefaultPlacement(),
		Status:    model.StatusInProgress,
	}
}

func TestWorker_handleTask(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	fresh := time.Now().UTC().Add(-time.Minute)
	stale := time.Now().UTC().Add(-time.Hour)

	tests := []struct {
		name       string
		task       *model.Task
		getErr     error
		updateErr  error
		wantErr    error
		wantAnyErr bool
		wantFailed bool
	}{
		{
			name: "already done",
			task: &model.Task{Status: model.StatusDone},
		},
		{
			name: "already failed",
			task: &model.Task{Status: model.StatusFailed},
		},
		{
			name:    "in progress by another worker",
			task:    &model.Task{Status: model.StatusInProgress, UpdatedAt: &fresh},
			wantErr: errInProgress,
		},
		{
			name:       "stale in progress is taken again",
			task:       &model.Task{Status: model.StatusInProgress, UpdatedAt: &stale, SourceKey: "src/x.png"},
			wantFailed: true,
		},
		{
			name:    "task not found",
			getErr:  model.ErrTaskNotFound,
			wantErr: model.ErrTaskNotFound,
		},
		{
			name:       "update status error",
			task:       &model.Task{Status: model.StatusCreated},
			updateErr:  errors.New("db down"),
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failed := false
			svc := &mockWorkerService{
				getFn: func(ctx context.Context, _ string) (*model.Task, error) {
					return tt.task, tt.getErr
				},
				updateFn: func(ctx context.Context, _ string, st model.Status) error {
					require.Equal(t, model.StatusInProgress, st)
					return tt.updateErr
				},
				markFailedFn: func(ctx context.Context, _ *model.Task, cause error) error {
					failed = true
					return nil
				},
			}

			w := newTestWorker(&mockStorage{downloadErr: errors.New("no such key")}, svc)
			err := w.handleTask(ctx, id)

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantAnyErr:
				require.Error(t, err)
			default:
				require.NoError(t, err)
			}
			require.Equal(t, tt.wantFailed, failed)
		})
	}
}

func TestWorker_processTask_TextOK(t *testing.T) {
	root := t.TempDir()
	task := textTask("src/doc.png")
	putImage(t, root, task.SourceKey, 200, 100)

	saved := false
	svc := &mockWorkerService{
		saveResultFn: func(ctx context.Context, res *model.Task) error {
			require.Equal(t, model.StatusDone, res.Status)
			require.Equal(t, "res/"+task.UID.String()+".png", res.ResultKey)
			saved = true
			return nil
		},
	}
	strg := &mockStorage{root: root}

	require.NoError(t, newTestWorker(strg, svc).processTask(context.Background(), task))
	require.True(t, saved)
	require.Equal(t, model.PNG, strg.uploaded[task.ResultKey])

	res, err := imaging.Open(filepath.Join(root, task.ResultKey))
	require.NoError(t, err)
	require.Equal(t, image.Pt(200, 100), res.Bounds().Size())
}

func TestWorker_processTask_ImageOK(t *testing.T) {
	root := t.TempDir()
	task := &model.Task{
		UID:          uuid.New(),
		SourceKey:    "src/photo.jpg",
		WatermarkKey: "wm/logo.png",
		Kind:         model.KindImage,
		Placement:    model.Placement{Position: model.PosBottomRight, Opacity: 1, SizeRatio: 0.25, Margin: 4},
	}
	putImage(t, root, task.SourceKey, 120, 80)
	putImage(t, root, task.WatermarkKey, 10, 10)

	svc := &mockWorkerService{
		saveResultFn: func(ctx context.Context, res *model.Task) error { return nil },
	}
	strg := &mockStorage{root: root}

	require.NoError(t, newTestWorker(strg, svc).processTask(context.Background(), task))
	require.Equal(t, "res/"+task.UID.String()+".jpg", task.ResultKey)
	require.Equal(t, model.JPEG, strg.uploaded[task.ResultKey])
}

func TestWorker_processTask_Failures(t *testing.T) {
	tests := []struct {
		name       string
		prepare    func(t *testing.T, root string) *model.Task
		strgErr    error
		wantPrefix string
	}{
		{
			name: "corrupt source",
			prepare: func(t *testing.T, root string) *model.Task {
				task := textTask("src/broken.png")
				require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(root, task.SourceKey), []byte("not an image"), 0o644))
				return task
			},
			wantPrefix: "decode: ",
		},
		{
			name: "corrupt watermark image",
			prepare: func(t *testing.T, root string) *model.Task {
				task := textTask("src/doc.png")
				task.Kind = model.KindImage
				task.WatermarkKey = "wm/logo.png"
				putImage(t, root, task.SourceKey, 50, 50)
				require.NoError(t, os.MkdirAll(filepath.Join(root, "wm"), 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(root, task.WatermarkKey), []byte("junk"), 0o644))
				return task
			},
			wantPrefix: "watermark_load: ",
		},
		{
			name: "bad stored color",
			prepare: func(t *testing.T, root string) *model.Task {
				task := textTask("src/doc.png")
				task.FontColor = "teal"
				putImage(t, root, task.SourceKey, 50, 50)
				return task
			},
			wantPrefix: "validation: ",
		},
		{
			name: "storage unavailable",
			prepare: func(t *testing.T, root string) *model.Task {
				return textTask("src/doc.png")
			},
			strgErr:    errors.New("connection refused"),
			wantPrefix: "storage: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			task := tt.prepare(t, root)

			w := newTestWorker(&mockStorage{root: root, downloadErr: tt.strgErr}, &mockWorkerService{})
			err := w.processTask(context.Background(), task)

			require.Error(t, err)
			require.True(t, strings.HasPrefix(err.Error(), tt.wantPrefix), err.Error())
			require.NotEqual(t, model.StatusDone, task.Status)
		})
	}
}
