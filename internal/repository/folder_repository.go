package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pwstorage/pwstorage/internal/apperror"
	"github.com/pwstorage/pwstorage/internal/model"
)

// FolderRepo encapsulates queries against the `folders` table. Every lookup
// is scoped to the owning user; a folder owned by someone else is
// indistinguishable from a missing one.
type FolderRepo struct {
	db DBTX
}

func NewFolderRepo(db DBTX) *FolderRepo { return &FolderRepo{db: db} }

const folderColumns = "id, owner_user_id, parent_folder_id, name, created_at"

// Exists fails with FolderNotFound unless the folder exists and belongs to
// the user. Used to validate parent references before insert/update.
func (r *FolderRepo) Exists(ctx context.Context, folderID, userID uint64) error {
	_, err := r.GetByID(ctx, folderID, userID)
	return err
}

// Create inserts a folder and populates its ID.
func (r *FolderRepo) Create(ctx context.Context, f *model.Folder) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO folders (owner_user_id, parent_folder_id, name, created_at) VALUES (?,?,?,?)",
		f.OwnerUserID, f.ParentFolderID, f.Name, f.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// GetByID fetches a folder scoped to its owner.
func (r *FolderRepo) GetByID(ctx context.Context, folderID, userID uint64) (*model.Folder, error) {
	var (
		f      model.Folder
		parent sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT "+folderColumns+" FROM folders WHERE id = ? AND owner_user_id = ? LIMIT 1",
		folderID, userID).Scan(&f.ID, &f.OwnerUserID, &parent, &f.Name, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.FolderNotFound(folderID)
	}
	if err != nil {
		return nil, err
	}
	if parent.Valid {
		v := uint64(parent.Int64)
		f.ParentFolderID = &v
	}
	return &f, nil
}

// List returns one page of the user's folders ordered by id, plus the total
// count.
func (r *FolderRepo) List(ctx context.Context, userID uint64, p Pagination) ([]*model.Folder, int, error) {
	p = p.Normalize()

	var total int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(id) FROM folders WHERE owner_user_id = ?", userID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+folderColumns+" FROM folders WHERE owner_user_id = ? ORDER BY id LIMIT ? OFFSET ?",
		userID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.Folder
	for rows.Next() {
		var (
			f      model.Folder
			parent sql.NullInt64
		)
		if err := rows.Scan(&f.ID, &f.OwnerUserID, &parent, &f.Name, &f.CreatedAt); err != nil {
			return nil, 0, err
		}
		if parent.Valid {
			v := uint64(parent.Int64)
			f.ParentFolderID = &v
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update persists name and parent changes.
func (r *FolderRepo) Update(ctx context.Context, f *model.Folder) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE folders SET parent_folder_id = ?, name = ? WHERE id = ? AND owner_user_id = ?",
		f.ParentFolderID, f.Name, f.ID, f.OwnerUserID)
	return err
}

// Delete removes the folder; children and contained records go with it via
// ON DELETE CASCADE.
func (r *FolderRepo) Delete(ctx context.Context, folderID, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM folders WHERE id = ? AND owner_user_id = ?", folderID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.FolderNotFound(folderID)
	}
	return nil
}

// DeleteAllForUser removes every folder of the user (account deletion).
func (r *FolderRepo) DeleteAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM folders WHERE owner_user_id = ?", userID)
	return err
}
