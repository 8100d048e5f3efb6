// Package taskpostgres keeps watermark tasks in PostgreSQL
package taskpostgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/wb-go/wbf/dbpg"
)

type PostgresRepo struct {
	DB *dbpg.DB
}

func (p PostgresRepo) Create(ctx context.Context, t *model.Task) error {
	query := `INSERT INTO watermark_tasks (task_uid, source_key, wm_key, result_key, kind, wm_text, placement, font_size, font_color, status, err_msg, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	return p.DB.QueryRowContext(ctx, query,
		t.UID,
		t.SourceKey,
		t.WatermarkKey,
		t.ResultKey,
		t.Kind,
		t.Text,
		t.Placement,
		t.FontSize,
		t.FontColor,
		t.Status,
		t.ErrMsg,
		t.CreatedAt,
		t.CreatedAt).Err()
}

func (p PostgresRepo) Get(ctx context.Context, id string) (*model.Task, error) {
	query := `SELECT task_uid, source_key, wm_key, result_key, kind, wm_text, placement, font_size, font_color, status, err_msg, created_at, updated_at
	FROM watermark_tasks
	WHERE task_uid = $1`
	var task model.Task

	err := p.DB.QueryRowContext(ctx, query, id).Scan(&task.UID,
		&task.SourceKey,
		&task.WatermarkKey,
		&task.ResultKey,
		&task.Kind,
		&task.Text,
		&task.Placement,
		&task.FontSize,
		&task.FontColor,
		&task.Status,
		&task.ErrMsg,
		&task.CreatedAt,
		&task.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, model.ErrTaskNotFound
		default:
			return nil, err // 500
		}
	}
	return &task, nil
}

// GetList expects req.Sort and req.Order to be normalized to a column name and ASC/DESC.
func (p PostgresRepo) GetList(ctx context.Context, req *model.ListRequest) ([]model.Task, error) {
	query := fmt.Sprintf(`SELECT task_uid, kind, wm_text, placement, font_size, font_color, status, err_msg, created_at, updated_at
	FROM watermark_tasks
	ORDER BY %s %s
	LIMIT $1
	OFFSET $2`, req.Sort, req.Order)

	offset := (req.Page - 1) * req.Limit

	rows, err := p.DB.QueryContext(ctx, query, req.Limit, offset)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	tasks := make([]model.Task, 0, req.Limit)
	for rows.Next() {
		var task model.Task
		if err := rows.Scan(&task.UID,
			&task.Kind,
			&task.Text,
			&task.Placement,
			&task.FontSize,
			&task.FontColor,
			&task.Status,
			&task.ErrMsg,
			&task.CreatedAt,
			&task.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return tasks, nil
}

func (p PostgresRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM watermark_tasks
	WHERE task_uid = $1`

	res, err := p.DB.Master.ExecContext(ctx, query, id)
	return affectedOne(res, err)
}

func (p PostgresRepo) UpdateStatus(ctx context.Context, id string, newStat model.Status) error {
	query := `UPDATE watermark_tasks SET status = $1, updated_at = now() WHERE task_uid = $2`

	res, err := p.DB.Master.ExecContext(ctx, query, newStat, id)
	return affectedOne(res, err)
}

func (p PostgresRepo) SaveResult(ctx context.Context, t *model.Task) error {
	query := `UPDATE watermark_tasks SET status = $1, updated_at = $2, result_key = $3, err_msg = $4 WHERE task_uid = $5`

	res, err := p.DB.Master.ExecContext(ctx, query, t.Status, t.UpdatedAt, t.ResultKey, t.ErrMsg, t.UID)
	return affectedOne(res, err)
}

// FetchOrphans returns tasks stuck in created/in_progress for more than 10 minutes.
func (p PostgresRepo) FetchOrphans(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT task_uid
	FROM watermark_tasks
	WHERE status IN ($1, $2)
	AND updated_at < now() - interval '10 minutes'
	LIMIT $3`

	rows, err := p.DB.QueryContext(ctx, query, model.StatusCreated, model.StatusInProgress, limit)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	orphans := make([]string, 0, limit)
	for rows.Next() {
		uid := ""
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		orphans = append(orphans, uid)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return orphans, nil
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err // 500
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrTaskNotFound // 404
	}
	return nil
}
