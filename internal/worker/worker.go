// Package worker consumes task ids from the queue and runs every task through the watermark pipeline
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/UnendingLoop/Watermarker/internal/mwlogger"
	"github.com/UnendingLoop/Watermarker/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

// An in_progress task untouched for this long is considered abandoned and is taken again.
const staleAfter = 10 * time.Minute

var errInProgress = errors.New("task is already in progress")

// NoopPublisher - ЗАГЛУШКА, функциональность настоящего паблишера в очередь не нужна в рамках работы воркера
type NoopPublisher struct{}

func (NoopPublisher) SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error {
	return nil
}

type TaskWorkerService interface {
	Get(ctx context.Context, id string) (*model.Task, error)
	UpdateStatus(ctx context.Context, id string, newStat model.Status) error
	SaveResult(ctx context.Context, res *model.Task) error
	MarkFailed(ctx context.Context, res *model.Task, cause error) error
	ResultKey(id, ext string) string
}

// ObjectTransfer moves objects between the storage and local files.
type ObjectTransfer interface {
	Download(ctx context.Context, key, path string) error
	Upload(ctx context.Context, key, path, contentType string) error
}

type Worker struct {
	storage   ObjectTransfer
	service   TaskWorkerService
	processor *pipeline.Processor
	queue     <-chan kafkago.Message
	consumer  *wbfkafka.Consumer
}

func NewWorkerInstance(strg ObjectTransfer, svc TaskWorkerService, proc *pipeline.Processor, q <-chan kafkago.Message, cons *wbfkafka.Consumer) *Worker {
	return &Worker{storage: strg, service: svc, processor: proc, queue: q, consumer: cons}
}

func (w *Worker) StartWorker(ctx context.Context) {
	logger := mwlogger.LoggerFromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-w.queue:
			if !ok {
				logger.Info().Msg("Queue channel closed, stopping worker...")
				return
			}
			id := string(msg.Key)
			taskCtx := mwlogger.WithTaskID(ctx, id)
			if err := w.handleTask(taskCtx, id); err != nil && !errors.Is(err, model.ErrTaskNotFound) {
				logger := mwlogger.LoggerFromContext(taskCtx)
				logger.Error().Err(err).Msg("Task failed")
				continue
			}
			if err := w.consumer.Commit(ctx, msg); err != nil {
				logger.Error().Err(err).Msg("Failed to commit queue-message")
			}
		}
	}
}

// handleTask returns nil when the task reached a final state, including failed.
func (w *Worker) handleTask(ctx context.Context, id string) error {
	// считать из базы задачу
	task, err := w.service.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("worker failed to fetch task %q from DB: %w", id, err)
	}

	// проверить статус
	switch task.Status {
	case model.StatusDone, model.StatusFailed:
		return nil
	case model.StatusInProgress:
		if task.UpdatedAt != nil && time.Since(*task.UpdatedAt) < staleAfter {
			return errInProgress
		}
	}

	// обновить статус
	if err := w.service.UpdateStatus(ctx, id, model.StatusInProgress); err != nil {
		return fmt.Errorf("failed to update status of task %q to `in_progress` in DB: %w", id, err)
	}
	task.Status = model.StatusInProgress

	// выполняем саму операцию, ошибку обработки сохраняем в задаче
	if pErr := w.processTask(ctx, task); pErr != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Warn().Err(pErr).Msg("Task processing failed")
		if uErr := w.service.MarkFailed(ctx, task, pErr); uErr != nil {
			return fmt.Errorf("failed to set status of task %q to `failed` in DB: %w \nAFTER\n error while processing task: %w", id, uErr, pErr)
		}
	}

	return nil
}

func (w *Worker) processTask(ctx context.Context, task *model.Task) error {
	tmp, err := os.MkdirTemp("", "watermark-task-*")
	if err != nil {
		return fmt.Errorf("storage: failed to create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			logger := mwlogger.LoggerFromContext(ctx)
			logger.Warn().Err(err).Str("dir", tmp).Msg("Failed to remove temp dir")
		}
	}()

	// результат сохраняется в формате исходника
	ext := strings.ToLower(filepath.Ext(task.SourceKey))
	srcPath := filepath.Join(tmp, "source"+ext)
	if err := w.storage.Download(ctx, task.SourceKey, srcPath); err != nil {
		return fmt.Errorf("storage: failed to fetch source image: %w", err)
	}

	var wmPath string
	if task.Kind == model.KindImage {
		wmPath = filepath.Join(tmp, "watermark"+strings.ToLower(filepath.Ext(task.WatermarkKey)))
		if err := w.storage.Download(ctx, task.WatermarkKey, wmPath); err != nil {
			return fmt.Errorf("storage: failed to fetch watermark image: %w", err)
		}
	}

	wm, err := task.Watermark(wmPath)
	if err != nil {
		return fmt.Errorf("validation: %w", err)
	}

	outPath := filepath.Join(tmp, "result"+ext)
	if err := w.processor.Process(ctx, srcPath, outPath, wm, task.Placement); err != nil {
		return fmt.Errorf("%s: %w", pipeline.ErrorKind(err), err)
	}

	// положить результат в сторедж
	resKey := w.service.ResultKey(task.UID.String(), ext)
	if err := w.storage.Upload(ctx, resKey, outPath, model.GetCType[ext]); err != nil {
		return fmt.Errorf("storage: failed to put result image: %w", err)
	}

	task.Status = model.StatusDone
	task.ResultKey = resKey

	// обновить запись в БД
	if err := w.service.SaveResult(ctx, task); err != nil {
		return fmt.Errorf("db: failed to save result: %w", err)
	}

	logger := mwlogger.LoggerFromContext(ctx)
	logger.Info().Str("result_key", resKey).Msg("Task done")
	return nil
}
