package service

import (
	"bytes"
	"context"
	"io"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/wb-go/wbf/retry"
)

// mockRepo - func-field заглушка repository.TaskRepo; не заданная функция паникует,
// так тест сразу показывает неожиданный вызов
type mockRepo struct {
	// CRUD задачи
	createFn  func(ctx context.Context, t *model.Task) error
	getFn     func(ctx context.Context, id string) (*model.Task, error)
	getListFn func(ctx context.Context, req *model.ListRequest) ([]model.Task, error)
	deleteFn  func(ctx context.Context, id string) error

	// жизненный цикл задачи: воркер и восстановление подвисших
	updateStatusFn func(ctx context.Context, id string, st model.Status) error
	saveResultFn   func(ctx context.Context, t *model.Task) error
	fetchOrphansFn func(ctx context.Context, limit int) ([]string, error)
}

func (m *mockRepo) Create(ctx context.Context, t *model.Task) error { return m.createFn(ctx, t) }

func (m *mockRepo) Get(ctx context.Context, id string) (*model.Task, error) { return m.getFn(ctx, id) }

func (m *mockRepo) GetList(ctx context.Context, req *model.ListRequest) ([]model.Task, error) {
	return m.getListFn(ctx, req)
}

func (m *mockRepo) Delete(ctx context.Context, id string) error { return m.deleteFn(ctx, id) }

// UpdateStatus, SaveResult and FetchOrphans back the worker-facing half of TaskService:
// status transitions, result/error recording and republishing stale tasks.

func (m *mockRepo) UpdateStatus(ctx context.Context, id string, st model.Status) error {
	return m.updateStatusFn(ctx, id, st)
}

func (m *mockRepo) SaveResult(ctx context.Context, t *model.Task) error {
	return m.saveResultFn(ctx, t)
}

func (m *mockRepo) FetchOrphans(ctx context.Context, limit int) ([]string, error) {
	return m.fetchOrphansFn(ctx, limit)
}

// mockStorage - заглушка ObjectStorage для исходников, ватермарков и результатов
type mockStorage struct {
	putFn    func(ctx context.Context, key string, size int64, ct string, r io.Reader) error
	getFn    func(ctx context.Context, key string) (io.ReadCloser, string, error)
	deleteFn func(ctx context.Context, key string) error
}

func (m *mockStorage) Put(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
	return m.putFn(ctx, key, size, ct, r)
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return m.getFn(ctx, key)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error { return m.deleteFn(ctx, key) }

// mockPublisher - заглушка очереди задач
type mockPublisher struct {
	sendFn func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error
}

func (m *mockPublisher) SendWithRetry(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
	return m.sendFn(ctx, s, key, v)
}

// fakeMultipartFile - загруженный файл в памяти, удовлетворяет multipart.File
type fakeMultipartFile struct {
	*bytes.Reader
}

func (f *fakeMultipartFile) Close() error { return nil }
