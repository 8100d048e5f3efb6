package service

import (
	"fmt"
	"strings"

	"github.com/UnendingLoop/Watermarker/internal/model"
)

const maxFontSize = 1000

func validateQueryParams(req *model.ListRequest) {
	// Обрабатываем пустые значения, присваиваем дефолты если надо
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 30
	}

	// Валидируем поле типа сортировки - в запрос уходит только имя колонки из белого списка
	req.Sort = strings.TrimSpace(strings.ToLower(req.Sort))
	switch {
	case strings.Contains(req.Sort, model.ByUUID):
		req.Sort = "task_uid"
	case strings.Contains(req.Sort, model.ByStatus):
		req.Sort = "status"
	default:
		req.Sort = "created_at" // по дефолту ставим сортировку по времени создания
	}

	// Валадируем порядок
	req.Order = strings.TrimSpace(strings.ToLower(req.Order))
	switch {
	case strings.Contains(req.Order, model.OrderASC):
		req.Order = "ASC"
	default:
		req.Order = "DESC" // по дефолту ставим сортировку "новое-выше"
	}
}

func validateNormalizeTaskInfo(raw *model.TaskCreateData, clean *model.Task) error {
	// корректен ли исходник
	if raw.OrigImg == nil || raw.OrigImgSize <= 0 {
		return model.ErrEmptySource
	}
	if !model.InImageTypeMap[raw.OrigContentType] {
		return model.ErrUnsupportedFormat
	}

	// тип водяного знака определяется наличием файла ватермарка
	switch {
	case raw.WMImg != nil:
		if raw.WMImgSize <= 0 {
			return model.ErrEmptyWMark
		}
		if !model.InImageTypeMap[raw.WMContentType] {
			return model.ErrUnsupportedWMFormat
		}
		clean.Kind = model.KindImage
	case strings.TrimSpace(raw.Text) != "":
		clean.Kind = model.KindText
		clean.Text = raw.Text
	default:
		return model.ErrEmptyWMark
	}

	// параметры размещения
	if err := raw.Placement.Validate(); err != nil {
		return err
	}
	clean.Placement = raw.Placement

	// параметры текста - для картинки игнорируются
	if clean.Kind == model.KindText {
		if raw.FontSize < 0 || raw.FontSize > maxFontSize {
			return fmt.Errorf("%w: font size %d not in [0, %d]", model.ErrIncorrectPlacement, raw.FontSize, maxFontSize)
		}
		if _, err := model.ParseColor(raw.FontColor); err != nil {
			return err
		}
		clean.FontSize = raw.FontSize
		clean.FontColor = strings.ToLower(strings.TrimSpace(raw.FontColor))
	}

	return nil
}
