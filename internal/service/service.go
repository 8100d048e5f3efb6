// Package service provides business-logic for the app
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/UnendingLoop/Watermarker/internal/mwlogger"
	"github.com/UnendingLoop/Watermarker/internal/repository"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/retry"
)

const (
	defaultSrcPrefix    = "source/"
	defaultWMPrefix     = "watermark/"
	defaultResultPrefix = "result/"
)

type TaskService struct {
	repo            repository.TaskRepo
	publisher       TaskPublisher
	storage         ObjectStorage
	srcKeyPrefix    string
	wmKeyPrefix     string
	resultKeyPrefix string
}

// NewTaskService reads object-key prefixes from SOURCE_KEY, WATERMARK_KEY and RESULT_KEY.
func NewTaskService(cfg *config.Config, taskRep repository.TaskRepo, pub TaskPublisher, strg ObjectStorage) *TaskService {
	return &TaskService{
		repo:            taskRep,
		publisher:       pub,
		storage:         strg,
		srcKeyPrefix:    orDefault(cfg.GetString("SOURCE_KEY"), defaultSrcPrefix),
		wmKeyPrefix:     orDefault(cfg.GetString("WATERMARK_KEY"), defaultWMPrefix),
		resultKeyPrefix: orDefault(cfg.GetString("RESULT_KEY"), defaultResultPrefix),
	}
}

// TaskPublisher - контракт для работы с очередью
type TaskPublisher interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error
}

// ObjectStorage - контракт для работы с хранилищем
type ObjectStorage interface {
	Delete(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (output io.ReadCloser, ctype string, err error)
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

// Стратегия ретрая отправки в очередь - можно потом вынести значения в конфиг/env
var retryStrategy = retry.Strategy{
	Attempts: 5,
	Delay:    3 * time.Second,
	Backoff:  1.5,
}

func (c TaskService) Create(ctx context.Context, data *model.TaskCreateData) (*model.Task, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	newTask := &model.Task{}

	// валидируем параметры водяного знака
	if err := validateNormalizeTaskInfo(data, newTask); err != nil {
		return nil, err
	}

	// генерируем UUID
	newTask.UID = uuid.New()

	// кладем в хранилище сорсник
	newTask.SourceKey = c.srcKeyPrefix + newTask.UID.String() + model.GetImageFileExt[data.OrigContentType]
	if err := c.storage.Put(ctx, newTask.SourceKey, data.OrigImgSize, data.OrigContentType, data.OrigImg); err != nil {
		logger.Error().Err(err).Msg("Failed to save src-image in Storage")
		return nil, model.ErrCommon500
	}

	// кладем в хранилище ватермарк - только для водяного знака-картинки
	if newTask.Kind == model.KindImage {
		newTask.WatermarkKey = c.wmKeyPrefix + newTask.UID.String() + model.GetImageFileExt[data.WMContentType]
		if err := c.storage.Put(ctx, newTask.WatermarkKey, data.WMImgSize, data.WMContentType, data.WMImg); err != nil {
			logger.Error().Err(err).Msg("Failed to save watermark in Storage")
			return nil, model.ErrCommon500
		}
	}

	// ставим статус и таймстамп
	newTask.Status = model.StatusCreated
	now := time.Now().UTC()
	newTask.CreatedAt = &now
	newTask.UpdatedAt = &now

	// шлем в базу
	if err := c.repo.Create(ctx, newTask); err != nil {
		logger.Error().Err(err).Msg("Failed to create task in DB")
		return nil, model.ErrCommon500
	}

	// кладем в очередь задач(в кафку)
	if err := c.publisher.SendWithRetry(ctx, retryStrategy, []byte(newTask.UID.String()), nil); err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to publish task %q to task-queue", newTask.UID))
		return nil, model.ErrCommon500
	}

	logger.Info().Str("task_id", newTask.UID.String()).Str("kind", string(newTask.Kind)).Msg("Task created")
	return newTask, nil
}

func (c TaskService) GetList(ctx context.Context, req *model.ListRequest) ([]model.Task, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	validateQueryParams(req)

	res, err := c.repo.GetList(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch tasks list from DB")
		return nil, model.ErrCommon500
	}

	return res, nil
}

func (c TaskService) Get(ctx context.Context, id string) (*model.Task, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, model.ErrIncorrectID
	}

	return c.fetch(ctx, id)
}

func (c TaskService) fetch(ctx context.Context, id string) (*model.Task, error) {
	res, err := c.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrTaskNotFound) {
			return nil, model.ErrTaskNotFound // 404
		}
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch task %q from DB", id))
		return nil, model.ErrCommon500
	}
	return res, nil
}

func (c TaskService) LoadResult(ctx context.Context, id string) (io.ReadCloser, string, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(id); err != nil {
		return nil, "", model.ErrIncorrectID
	}

	res, err := c.fetch(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if res.Status != model.StatusDone {
		return nil, "", model.ErrResultNotReady
	}

	// достаем из хранилища
	data, cType, err := c.storage.Get(ctx, res.ResultKey)
	if err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch result-image %q from Storage", id))
		return nil, "", model.ErrCommon500
	}
	return data, cType, nil
}

func (c TaskService) Delete(ctx context.Context, id string) error {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(id); err != nil {
		return model.ErrIncorrectID
	}

	// читаем из базы
	res, err := c.fetch(ctx, id)
	if err != nil {
		return err
	}

	// удаляем из базы
	if err := c.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrTaskNotFound) {
			return model.ErrTaskNotFound
		}
		logger.Error().Err(err).Msg("Failed to delete task from DB")
		return model.ErrCommon500
	}

	// удаляем из хранилища сорсник, результат и ватермарк(если они есть)
	for _, key := range []string{res.SourceKey, res.WatermarkKey, res.ResultKey} {
		if key == "" {
			continue
		}
		if err := c.storage.Delete(ctx, key); err != nil {
			logger.Error().Err(err).Str("key", key).Msg("Failed to delete object from Storage")
			return model.ErrCommon500
		}
	}

	return nil
}

func (c TaskService) UpdateStatus(ctx context.Context, id string, newStat model.Status) error {
	if err := uuid.Validate(id); err != nil {
		return model.ErrIncorrectID
	}
	if !model.StatusMap[newStat] {
		return model.ErrIncorrectStatus
	}

	logger := mwlogger.LoggerFromContext(ctx)

	if err := c.repo.UpdateStatus(ctx, id, newStat); err != nil {
		switch {
		case errors.Is(err, model.ErrTaskNotFound):
			return model.ErrTaskNotFound // 404
		default:
			logger.Error().Err(err).Msg("Failed to update task status in DB")
			return model.ErrCommon500 // 500
		}
	}

	return nil
}

func (c TaskService) SaveResult(ctx context.Context, input *model.Task) error {
	logger := mwlogger.LoggerFromContext(ctx)
	t := time.Now().UTC()
	input.UpdatedAt = &t
	if err := c.repo.SaveResult(ctx, input); err != nil {
		switch {
		case errors.Is(err, model.ErrTaskNotFound):
			return model.ErrTaskNotFound // 404
		default:
			logger.Error().Err(err).Msg("Failed to save task result in DB")
			return model.ErrCommon500 // 500
		}
	}

	return nil
}

// MarkFailed records cause on the task and stores it with the failed status.
func (c TaskService) MarkFailed(ctx context.Context, input *model.Task, cause error) error {
	input.Status = model.StatusFailed
	input.ErrMsg = append(input.ErrMsg, cause.Error())
	return c.SaveResult(ctx, input)
}

// ResultKey - object key for the result of task id with file extension ext
func (c TaskService) ResultKey(id, ext string) string {
	return c.resultKeyPrefix + id + ext
}

func (c TaskService) ReviveOrphans(ctx context.Context, limit int) {
	logger := mwlogger.LoggerFromContext(ctx)

	orphans, err := c.repo.FetchOrphans(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load orphans from DB")
		return
	}

	for _, v := range orphans {
		if err := c.publisher.SendWithRetry(ctx, retryStrategy, []byte(v), nil); err != nil {
			logger.Error().Err(err).Msg("Failed to publish orphan to queue")
		}
	}
	if len(orphans) > 0 {
		logger.Info().Int("count", len(orphans)).Msg("Orphan tasks republished")
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
