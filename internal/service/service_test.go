package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
)

func newTestService(repo *mockRepo, strg *mockStorage, pub *mockPublisher) TaskService {
	return TaskService{
		repo:            repo,
		storage:         strg,
		publisher:       pub,
		srcKeyPrefix:    "src/",
		wmKeyPrefix:     "wm/",
		resultKeyPrefix: "res/",
	}
}

// CREATE - SUCCESS - TEXT
func TestTaskService_Create_TextOK(t *testing.T) {
	var putKeys []string

	repo := &mockRepo{
		createFn: func(ctx context.Context, task *model.Task) error {
			require.NotEmpty(t, task.UID)
			require.Equal(t, model.StatusCreated, task.Status)
			require.Equal(t, model.KindText, task.Kind)
			require.Empty(t, task.WatermarkKey)
			require.NotNil(t, task.CreatedAt)
			return nil
		},
	}

	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			putKeys = append(putKeys, key)
			return nil
		},
	}

	pub := &mockPublisher{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			require.NotEmpty(t, key)
			return nil
		},
	}

	svc := newTestService(repo, storage, pub)

	task, err := svc.Create(context.Background(), validCreateData())
	require.NoError(t, err)
	require.NotNil(t, task)
	require.Equal(t, "red", task.FontColor)
	require.Len(t, putKeys, 1)
	require.Equal(t, "src/"+task.UID.String()+".jpg", putKeys[0])
}

// CREATE - SUCCESS - IMAGE
func TestTaskService_Create_ImageOK(t *testing.T) {
	var putKeys []string

	repo := &mockRepo{
		createFn: func(ctx context.Context, task *model.Task) error {
			require.Equal(t, model.KindImage, task.Kind)
			require.True(t, strings.HasPrefix(task.WatermarkKey, "wm/"))
			require.True(t, strings.HasSuffix(task.WatermarkKey, ".png"))
			return nil
		},
	}
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			putKeys = append(putKeys, key)
			return nil
		},
	}
	pub := &mockPublisher{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error { return nil },
	}

	data := validCreateData()
	data.WMImg = newFakeFile("png-bytes")
	data.WMImgSize = 9
	data.WMContentType = model.PNG

	_, err := newTestService(repo, storage, pub).Create(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, putKeys, 2)
}

// CREATE - VALIDATION FAIL
func TestTaskService_Create_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *model.TaskCreateData)
		wantErr error
	}{
		{"no source", func(d *model.TaskCreateData) { d.OrigImg = nil }, model.ErrEmptySource},
		{"svg source", func(d *model.TaskCreateData) { d.OrigContentType = "image/svg+xml" }, model.ErrUnsupportedFormat},
		{"no watermark", func(d *model.TaskCreateData) { d.Text = "   " }, model.ErrEmptyWMark},
		{"bad watermark format", func(d *model.TaskCreateData) {
			d.WMImg, d.WMImgSize, d.WMContentType = newFakeFile("x"), 1, "application/pdf"
		}, model.ErrUnsupportedWMFormat},
		{"empty watermark file", func(d *model.TaskCreateData) {
			d.WMImg, d.WMImgSize, d.WMContentType = newFakeFile(""), 0, model.PNG
		}, model.ErrEmptyWMark},
		{"bad position", func(d *model.TaskCreateData) { d.Placement.Position = "left" }, model.ErrIncorrectPosition},
		{"opacity", func(d *model.TaskCreateData) { d.Placement.Opacity = 2 }, model.ErrIncorrectPlacement},
		{"rotation NaN", func(d *model.TaskCreateData) { d.Placement.Rotation = math.NaN() }, model.ErrIncorrectPlacement},
		{"font size", func(d *model.TaskCreateData) { d.FontSize = -3 }, model.ErrIncorrectPlacement},
		{"font color", func(d *model.TaskCreateData) { d.FontColor = "teal" }, model.ErrIncorrectColor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := validCreateData()
			tt.mutate(data)

			_, err := TaskService{}.Create(context.Background(), data)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// CREATE - STORAGE PUT FAIL
func TestTaskService_Create_StorageError(t *testing.T) {
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			return errors.New("storage is down")
		},
	}

	svc := newTestService(&mockRepo{}, storage, nil)

	_, err := svc.Create(context.Background(), validCreateData())
	require.ErrorIs(t, err, model.ErrCommon500)
}

// CREATE - PUBLISH FAIL
func TestTaskService_Create_PublishError(t *testing.T) {
	repo := &mockRepo{createFn: func(ctx context.Context, task *model.Task) error { return nil }}
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error { return nil },
	}
	pub := &mockPublisher{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			return errors.New("kafka is down")
		},
	}

	_, err := newTestService(repo, storage, pub).Create(context.Background(), validCreateData())
	require.ErrorIs(t, err, model.ErrCommon500)
}

// GETLIST - SUCCESS
func TestTaskService_GetList_OK(t *testing.T) {
	repo := &mockRepo{
		getListFn: func(ctx context.Context, req *model.ListRequest) ([]model.Task, error) {
			require.Equal(t, 1, req.Page)
			require.Equal(t, 30, req.Limit)
			require.Equal(t, "created_at", req.Sort)
			require.Equal(t, "DESC", req.Order)
			return []model.Task{{UID: uuid.New()}}, nil
		},
	}

	svc := TaskService{repo: repo}

	res, err := svc.GetList(context.Background(), &model.ListRequest{})
	require.NoError(t, err)
	require.Len(t, res, 1)
}

func TestValidateQueryParams(t *testing.T) {
	req := &model.ListRequest{Page: 3, Limit: 500, Sort: " Status ", Order: "ascend"}
	validateQueryParams(req)
	require.Equal(t, model.ListRequest{Page: 3, Limit: 30, Sort: "status", Order: "ASC"}, *req)

	req = &model.ListRequest{Sort: "uid; DROP TABLE", Order: "sideways"}
	validateQueryParams(req)
	require.Equal(t, "task_uid", req.Sort)
	require.Equal(t, "DESC", req.Order)
}

// GET - SUCCESS
func TestTaskService_Get_OK(t *testing.T) {
	id := uuid.New().String()

	repo := &mockRepo{
		getFn: func(ctx context.Context, uid string) (*model.Task, error) {
			return &model.Task{UID: uuid.MustParse(uid)}, nil
		},
	}

	svc := TaskService{repo: repo}

	task, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, task.UID.String())
}

// GET - FAIL
func TestTaskService_Get_Errors(t *testing.T) {
	svc := TaskService{}
	_, err := svc.Get(context.Background(), "bad-id")
	require.ErrorIs(t, err, model.ErrIncorrectID)

	svc.repo = &mockRepo{
		getFn: func(ctx context.Context, id string) (*model.Task, error) { return nil, model.ErrTaskNotFound },
	}
	_, err = svc.Get(context.Background(), uuid.New().String())
	require.ErrorIs(t, err, model.ErrTaskNotFound)

	svc.repo = &mockRepo{
		getFn: func(ctx context.Context, id string) (*model.Task, error) { return nil, errors.New("conn reset") },
	}
	_, err = svc.Get(context.Background(), uuid.New().String())
	require.ErrorIs(t, err, model.ErrCommon500)
}

// LOADRESULT - FAIL
func TestTaskService_LoadResult_NotReady(t *testing.T) {
	repo := &mockRepo{
		getFn: func(ctx context.Context, id string) (*model.Task, error) {
			return &model.Task{Status: model.StatusInProgress}, nil
		},
	}

	svc := TaskService{repo: repo}

	_, _, err := svc.LoadResult(context.Background(), uuid.New().String())
	require.ErrorIs(t, err, model.ErrResultNotReady)
}

// LOADRESULT - SUCCESS
func TestTaskService_LoadResult_OK(t *testing.T) {
	repo := &mockRepo{
		getFn: func(ctx context.Context, id string) (*model.Task, error) {
			return &model.Task{Status: model.StatusDone, ResultKey: "res/1.png"}, nil
		},
	}
	storage := &mockStorage{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
			require.Equal(t, "res/1.png", key)
			return io.NopCloser(strings.NewReader("png")), model.PNG, nil
		},
	}

	data, ct, err := newTestService(repo, storage, nil).LoadResult(context.Background(), uuid.New().String())
	require.NoError(t, err)
	require.Equal(t, model.PNG, ct)
	body, _ := io.ReadAll(data)
	require.Equal(t, "png", string(body))
}

// DELETE - FAIL - NOT FOUND
func TestTaskService_Delete_NotFound(t *testing.T) {
	repo := &mockRepo{
		getFn: func(ctx context.Context, id string) (*model.Task, error) {
			return nil, model.ErrTaskNotFound
		},
	}

	svc := TaskService{repo: repo}
	err := svc.Delete(context.Background(), uuid.New().String())
	require.ErrorIs(t, err, model.ErrTaskNotFound)
}

// DELETE - SUCCESS - removes every stored object
func TestTaskService_Delete_OK(t *testing.T) {
	var deleted []string

	repo := &mockRepo{
		getFn: func(ctx context.Context, id string) (*model.Task, error) {
			return &model.Task{SourceKey: "src/1.jpg", WatermarkKey: "wm/1.png", ResultKey: "res/1.jpg"}, nil
		},
		deleteFn: func(ctx context.Context, id string) error { return nil },
	}
	storage := &mockStorage{
		deleteFn: func(ctx context.Context, key string) error {
			deleted = append(deleted, key)
			return nil
		},
	}

	require.NoError(t, newTestService(repo, storage, nil).Delete(context.Background(), uuid.New().String()))
	require.Equal(t, []string{"src/1.jpg", "wm/1.png", "res/1.jpg"}, deleted)
}

// UPDATESTATUS - SUCCESS
func TestTaskService_UpdateStatus_OK(t *testing.T) {
	repo := &mockRepo{
		updateStatusFn: func(ctx context.Context, id string, st model.Status) error {
			require.Equal(t, model.StatusDone, st)
			return nil
		},
	}

	svc := TaskService{repo: repo}
	err := svc.UpdateStatus(context.Background(), uuid.New().String(), model.StatusDone)
	require.NoError(t, err)

	err = svc.UpdateStatus(context.Background(), uuid.New().String(), model.Status("paused"))
	require.ErrorIs(t, err, model.ErrIncorrectStatus)
}

// SAVERESULT - SUCCESS
func TestTaskService_SaveResult_OK(t *testing.T) {
	repo := &mockRepo{
		saveResultFn: func(ctx context.Context, task *model.Task) error {
			require.NotNil(t, task.UpdatedAt)
			return nil
		},
	}

	svc := TaskService{repo: repo}
	err := svc.SaveResult(context.Background(), &model.Task{})
	require.NoError(t, err)
}

// MARKFAILED
func TestTaskService_MarkFailed(t *testing.T) {
	var saved *model.Task
	repo := &mockRepo{
		saveResultFn: func(ctx context.Context, task *model.Task) error {
			saved = task
			return nil
		},
	}

	svc := TaskService{repo: repo}
	require.NoError(t, svc.MarkFailed(context.Background(), &model.Task{Status: model.StatusInProgress}, errors.New("decode: bad header")))
	require.Equal(t, model.StatusFailed, saved.Status)
	require.Equal(t, model.StringSlice{"decode: bad header"}, saved.ErrMsg)
}

func TestTaskService_ResultKey(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	require.Equal(t, "res/abc.webp", svc.ResultKey("abc", ".webp"))
}

// REVIVEORPHANS - SUCCESS
func TestTaskService_ReviveOrphans(t *testing.T) {
	called := 0

	repo := &mockRepo{
		fetchOrphansFn: func(ctx context.Context, limit int) ([]string, error) {
			return []string{"id1", "id2"}, nil
		},
	}

	pub := &mockPublisher{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			called++
			return nil
		},
	}

	svc := TaskService{repo: repo, publisher: pub}
	svc.ReviveOrphans(context.Background(), 10)

	require.Equal(t, 2, called)
}

// хелпер для создания файла
func newFakeFile(content string) multipart.File {
	return &fakeMultipartFile{
		Reader: bytes.NewReader([]byte(content)),
	}
}

// хелпер для генерации корректного TaskCreateData
func validCreateData() *model.TaskCreateData {
	return &model.TaskCreateData{
		Text:            "Confidential",
		Placement:       model.DefaultPlacement(),
		FontColor:       "Red",
		OrigImg:         newFakeFile("image-bytes"),
		OrigImgSize:     int64(len("image-bytes")),
		OrigContentType: model.JPEG,
	}
}
