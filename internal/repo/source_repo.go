package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/eventkb/internal/model"
	"github.com/xxxsen/eventkb/internal/pkg/dbutil"
	appErr "github.com/xxxsen/eventkb/internal/pkg/errors"
)

var sourceColumns = []string{"id", "event_id", "title", "type", "content", "status", "error_message", "ctime", "mtime"}

type SourceRepo struct {
	db *sql.DB
}

func NewSourceRepo(db *sql.DB) *SourceRepo {
	return &SourceRepo{db: db}
}

func (r *SourceRepo) Create(ctx context.Context, src *model.Source) error {
	data := map[string]interface{}{
		"id":            src.ID,
		"event_id":      src.EventID,
		"title":         src.Title,
		"type":          string(src.Type),
		"content":       src.Content,
		"status":        string(src.Status),
		"error_message": nullString(src.ErrorMessage),
		"ctime":         src.Ctime,
		"mtime":         src.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("sources", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrInvalid
		}
		return err
	}
	return nil
}

func (r *SourceRepo) GetByID(ctx context.Context, id string) (*model.Source, error) {
	sqlStr, args, err := builder.BuildSelect("sources", map[string]interface{}{"id": id}, sourceColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	src, err := scanSource(r.db.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return src, nil
}

func (r *SourceRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Source, error) {
	where := map[string]interface{}{
		"event_id": eventID,
		"_orderby": "ctime asc, id asc",
	}
	return r.list(ctx, where)
}

// ListByStatus returns the oldest sources in status first. A limit of zero
// means no limit.
func (r *SourceRepo) ListByStatus(ctx context.Context, status model.SourceStatus, limit int) ([]model.Source, error) {
	where := map[string]interface{}{
		"status":   string(status),
		"_orderby": "ctime asc, id asc",
	}
	if limit > 0 {
		where["_limit"] = []uint{0, uint(limit)}
	}
	return r.list(ctx, where)
}

func (r *SourceRepo) list(ctx context.Context, where map[string]interface{}) ([]model.Source, error) {
	sqlStr, args, err := builder.BuildSelect("sources", where, sourceColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sources := make([]model.Source, 0)
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *src)
	}
	return sources, rows.Err()
}

// UpdateStatusIf moves a source from one status to another and reports
// whether this caller performed the transition.
func (r *SourceRepo) UpdateStatusIf(ctx context.Context, id string, from, to model.SourceStatus, errMsg *string, mtime int64) (bool, error) {
	const query = `
		UPDATE sources
		SET status = $1, error_message = $2, mtime = $3
		WHERE id = $4 AND status = $5
	`
	res, err := r.db.ExecContext(ctx, query, string(to), nullString(errMsg), mtime, id, string(from))
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSource(row rowScanner) (*model.Source, error) {
	var src model.Source
	var typ, status string
	var errMsg sql.NullString
	if err := row.Scan(&src.ID, &src.EventID, &src.Title, &typ, &src.Content, &status, &errMsg, &src.Ctime, &src.Mtime); err != nil {
		return nil, err
	}
	src.Type = model.SourceType(typ)
	src.Status = model.SourceStatus(status)
	if errMsg.Valid {
		msg := errMsg.String
		src.ErrorMessage = &msg
	}
	return &src, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
