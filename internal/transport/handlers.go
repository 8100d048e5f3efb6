// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"io"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/UnendingLoop/Watermarker/internal/mwlogger"
	"github.com/wb-go/wbf/ginext"
)

type TaskHandler struct {
	service TaskService
}

type TaskService interface {
	Create(ctx context.Context, data *model.TaskCreateData) (*model.Task, error)
	Get(ctx context.Context, id string) (*model.Task, error)                   // статус задачи
	Delete(ctx context.Context, id string) error                               // удалить как в базе, так и в minio
	LoadResult(ctx context.Context, id string) (io.ReadCloser, string, error)  // прям скачать результат
	GetList(ctx context.Context, req *model.ListRequest) ([]model.Task, error) // получить список
}

func NewTaskHandler(svc TaskService) *TaskHandler {
	return &TaskHandler{
		service: svc,
	}
}

func (h TaskHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

// Create accepts a multipart form: "image" is required, "watermark" is an optional image,
// otherwise "text" is used. Placement fields default to model.DefaultPlacement.
func (h TaskHandler) Create(ctx *ginext.Context) {
	placement, fontSize, err := parsePlacement(ctx.PostForm)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	// парсинг исходника
	imageFile, imageHeader, err := ctx.Request.FormFile("image")
	if err != nil {
		ctx.JSON(400, map[string]string{"error": "image is required"})
		return
	}
	defer closeFileFlow(ctx.Request.Context(), imageFile)

	// собираем все в структуру
	newTaskRaw := model.TaskCreateData{
		Text:            ctx.PostForm("text"),
		Placement:       placement,
		FontSize:        fontSize,
		FontColor:       ctx.PostForm("font_color"),
		OrigImg:         imageFile,
		OrigContentType: imageHeader.Header.Get("Content-Type"),
		OrigImgSize:     imageHeader.Size,
	}

	// парсинг ватермарка - опционален, без него нужен text
	if wmFile, wmHeader, err := ctx.Request.FormFile("watermark"); err == nil {
		defer closeFileFlow(ctx.Request.Context(), wmFile)
		newTaskRaw.WMImg = wmFile
		newTaskRaw.WMContentType = wmHeader.Header.Get("Content-Type")
		newTaskRaw.WMImgSize = wmHeader.Size
	}

	// передаем в сервис
	res, err := h.service.Create(ctx.Request.Context(), &newTaskRaw)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(201, res)
}

func (h TaskHandler) GetTask(ctx *ginext.Context) {
	res, err := h.service.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h TaskHandler) GetAllTasks(ctx *ginext.Context) {
	var req model.ListRequest

	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse query-params"})
		return
	}

	res, err := h.service.GetList(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h TaskHandler) LoadResult(ctx *ginext.Context) {
	id := ctx.Param("id")

	res, cType, err := h.service.LoadResult(ctx.Request.Context(), id)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}
	defer closeFileFlow(ctx.Request.Context(), res)

	ctx.Writer.Header().Set("Content-Type", cType)
	ctx.Writer.WriteHeader(200)
	if n, err := io.Copy(ctx.Writer, res); err != nil {
		logger := mwlogger.LoggerFromContext(ctx.Request.Context())
		logger.Error().Err(err).
			Int64("written", n).Str("task_id", id).Msg("Failed to write result to response")
	}
}

func (h TaskHandler) Delete(ctx *ginext.Context) {
	id := ctx.Param("id")
	if err := h.service.Delete(ctx.Request.Context(), id); err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.Status(204)
}
