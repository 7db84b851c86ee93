package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pwstorage/pwstorage/internal/apperror"
	"github.com/pwstorage/pwstorage/internal/model"
)

// RecordFilter narrows and orders record listings. Zero-value fields are
// ignored. OrderBy must be one of the whitelisted columns; anything else is
// dropped rather than interpolated into SQL.
type RecordFilter struct {
	FolderID    *uint64
	RecordType  *model.RecordType
	TitleEq     *string
	TitleLike   *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	UpdatedFrom *time.Time
	UpdatedTo   *time.Time
	IsFavorite  *bool
	OrderBy     string
	OrderDesc   bool
}

var recordOrderColumns = map[string]bool{
	"title":      true,
	"created_at": true,
	"updated_at": true,
}

// RecordRepo encapsulates queries against the `records` table. Content
// arrives and leaves encrypted; this layer is storage only.
type RecordRepo struct {
	db DBTX
}

func NewRecordRepo(db DBTX) *RecordRepo { return &RecordRepo{db: db} }

const recordColumns = "id, owner_user_id, folder_id, record_type, title, content, is_favorite, created_at, updated_at"

// Create inserts a record and populates its ID.
func (r *RecordRepo) Create(ctx context.Context, rec *model.Record) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO records (owner_user_id, folder_id, record_type, title, content, is_favorite, created_at, updated_at) "+
			"VALUES (?,?,?,?,?,?,?,?)",
		rec.OwnerUserID, rec.FolderID, rec.RecordType, rec.Title, rec.Content,
		rec.IsFavorite, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// GetByID fetches a record scoped to its owner.
func (r *RecordRepo) GetByID(ctx context.Context, recordID, userID uint64) (*model.Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM records WHERE id = ? AND owner_user_id = ? LIMIT 1",
		recordID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.RecordNotFound(recordID)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns one page of the user's records matching the filter, plus the
// total count. Content is not selected: listings never expose it.
func (r *RecordRepo) List(ctx context.Context, userID uint64, f RecordFilter, p Pagination) ([]*model.Record, int, error) {
	p = p.Normalize()
	where, args := buildRecordFilter(userID, f)

	var total int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(id) FROM records WHERE "+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	order := "id"
	if recordOrderColumns[f.OrderBy] {
		order = f.OrderBy
		if f.OrderDesc {
			order += " DESC"
		}
		order += ", id"
	}

	query := fmt.Sprintf(
		"SELECT id, owner_user_id, folder_id, record_type, title, is_favorite, created_at, updated_at "+
			"FROM records WHERE %s ORDER BY %s LIMIT ? OFFSET ?", where, order)
	rows, err := r.db.QueryContext(ctx, query, append(args, p.Limit, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.Record
	for rows.Next() {
		var (
			rec    model.Record
			folder sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.OwnerUserID, &folder, &rec.RecordType,
			&rec.Title, &rec.IsFavorite, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if folder.Valid {
			v := uint64(folder.Int64)
			rec.FolderID = &v
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update persists every mutable column of the record.
func (r *RecordRepo) Update(ctx context.Context, rec *model.Record) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE records
		    SET folder_id = ?, title = ?, content = ?, is_favorite = ?, updated_at = ?
		  WHERE id = ? AND owner_user_id = ?`,
		rec.FolderID, rec.Title, rec.Content, rec.IsFavorite, rec.UpdatedAt,
		rec.ID, rec.OwnerUserID)
	return err
}

// Delete removes the record.
func (r *RecordRepo) Delete(ctx context.Context, recordID, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM records WHERE id = ? AND owner_user_id = ?", recordID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.RecordNotFound(recordID)
	}
	return nil
}

// DeleteAllForUser removes every record of the user (account deletion).
// Needed on top of the folder cascade because records outside any folder
// have no FK to cascade from.
func (r *RecordRepo) DeleteAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM records WHERE owner_user_id = ?", userID)
	return err
}

func buildRecordFilter(userID uint64, f RecordFilter) (string, []any) {
	var (
		where = []string{"owner_user_id = ?"}
		args  = []any{userID}
	)
	add := func(cond string, arg any) {
		where = append(where, cond)
		args = append(args, arg)
	}
	if f.FolderID != nil {
		add("folder_id = ?", *f.FolderID)
	}
	if f.RecordType != nil {
		add("record_type = ?", *f.RecordType)
	}
	if f.TitleEq != nil {
		add("title = ?", *f.TitleEq)
	}
	if f.TitleLike != nil {
		add("LOWER(title) LIKE ?", "%"+strings.ToLower(*f.TitleLike)+"%")
	}
	if f.CreatedFrom != nil {
		add("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		add("created_at <= ?", *f.CreatedTo)
	}
	if f.UpdatedFrom != nil {
		add("updated_at >= ?", *f.UpdatedFrom)
	}
	if f.UpdatedTo != nil {
		add("updated_at <= ?", *f.UpdatedTo)
	}
	if f.IsFavorite != nil {
		add("is_favorite = ?", *f.IsFavorite)
	}
	return strings.Join(where, " AND "), args
}

func scanRecord(row rowScanner) (*model.Record, error) {
	var (
		rec    model.Record
		folder sql.NullInt64
	)
	err := row.Scan(&rec.ID, &rec.OwnerUserID, &folder, &rec.RecordType, &rec.Title,
		&rec.Content, &rec.IsFavorite, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if folder.Valid {
		v := uint64(folder.Int64)
		rec.FolderID = &v
	}
	return &rec, nil
}
