// Package model provides data-structs for internal app-usage
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusFailed     Status = "failed"
	StatusDone       Status = "done"
)

var StatusMap = map[Status]bool{
	StatusCreated:    true,
	StatusInProgress: true,
	StatusFailed:     true,
	StatusDone:       true,
}

//---------------------

// Task is a queued watermarking job: one source image, one watermark, one placement.
type Task struct {
	UID          uuid.UUID     `json:"uid"`
	SourceKey    string        `json:"-"`
	WatermarkKey string        `json:"-"`
	ResultKey    string        `json:"-"`
	Kind         WatermarkKind `json:"kind"`
	Text         string        `json:"text,omitempty"`
	Placement    Placement     `json:"placement"`
	FontSize     int           `json:"font_size,omitempty"`
	FontColor    string        `json:"font_color,omitempty"`
	Status       Status        `json:"status,omitempty"`
	ErrMsg       StringSlice   `json:"error,omitempty"`
	CreatedAt    *time.Time    `json:"created_at,omitempty"`
	UpdatedAt    *time.Time    `json:"updated_at,omitempty"`
}

// Watermark converts the stored task into a watermark description.
// wmPath is the local copy of the watermark image, ignored for text tasks.
func (t *Task) Watermark(wmPath string) (Watermark, error) {
	if t.Kind == KindImage {
		return ImageWatermark(wmPath), nil
	}

	c, err := ParseColor(t.FontColor)
	if err != nil {
		return Watermark{}, err
	}

	return TextWatermark(t.Text, TextStyle{FontSize: t.FontSize, Color: c}), nil
}

//-------------------

type ListRequest struct {
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
	Sort  string `form:"sort"`
	Order string `form:"order"`
}

const (
	ByUUID    = "uid"
	ByCreated = "created"
	ByStatus  = "status"
	OrderASC  = "ascend"
	OrderDESC = "descend"
)

type TaskCreateData struct {
	Text            string
	Placement       Placement
	FontSize        int
	FontColor       string
	OrigImg         multipart.File
	OrigContentType string
	OrigImgSize     int64
	WMImg           multipart.File
	WMContentType   string
	WMImgSize       int64
}

// ------------------

var (
	ErrCommon500           error = errors.New("something went wrong. Try again later")  // 500
	ErrIncorrectQuery      error = errors.New("incorrect query parameters")             // 400
	ErrIncorrectID         error = errors.New("incorrect task UUID")                    // 400
	ErrTaskNotFound        error = errors.New("specified task UUID doesn't exist")      // 404
	ErrResultNotReady      error = errors.New("requested task is not processed yet")    // 404
	ErrEmptySource         error = errors.New("empty/incorrect source image provided")  // 400
	ErrEmptyWMark          error = errors.New("neither watermark text nor image given") // 400
	ErrIncorrectPosition   error = errors.New("unknown watermark position")             // 400
	ErrIncorrectPlacement  error = errors.New("placement parameter out of range")       // 400
	ErrIncorrectColor      error = errors.New("unknown font color")                     // 400
	ErrIncorrectKind       error = errors.New("unknown watermark kind")                 // 400
	ErrIncorrectStatus     error = errors.New("incorrect status provided")              // 400
	ErrUnsupportedWMFormat error = errors.New("unsupported watermark-image format")     // 400
	ErrUnsupportedFormat   error = errors.New("unsupported base image format")          // 400
)

//--------------------

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	GIF  = "image/gif"
	BMP  = "image/bmp"
	TIFF = "image/tiff"
	WEBP = "image/webp"
)

var GetImageFileExt = map[string]string{
	JPEG: ".jpg",
	PNG:  ".png",
	GIF:  ".gif",
	BMP:  ".bmp",
	TIFF: ".tiff",
	WEBP: ".webp",
}

var InImageTypeMap = map[string]bool{
	JPEG: true,
	PNG:  true,
	GIF:  true,
	BMP:  true,
	TIFF: true,
	WEBP: true,
}

// GetCType maps a lower-case file extension to its content type.
var GetCType = map[string]string{
	".jpg":  JPEG,
	".jpeg": JPEG,
	".png":  PNG,
	".gif":  GIF,
	".bmp":  BMP,
	".tif":  TIFF,
	".tiff": TIFF,
	".webp": WEBP,
}

//--------------------

type StringSlice []string

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = []string{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("invalid type for StringSlice")
	}

	if err := json.Unmarshal(b, s); err != nil {
		return fmt.Errorf("failed to unmarshal JSONB to []StringSlice: %w", err)
	}
	return nil
}

func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 || s == nil {
		return []byte(`[]`), nil
	}
	res, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal []StringSlice to JSONB: %w", err)
	}

	return res, nil
}
