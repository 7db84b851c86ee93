package handler

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pwstorage/pwstorage/internal/middleware"
	"github.com/pwstorage/pwstorage/internal/model"
	"github.com/pwstorage/pwstorage/internal/repository"
)

// FolderHandler serves /folders: ownership-scoped CRUD with an optional
// parent folder.
type FolderHandler struct {
	DB *sql.DB
}

func NewFolderHandler(db *sql.DB) *FolderHandler {
	return &FolderHandler{DB: db}
}

type folderReq struct {
	Name           string  `json:"name"`
	ParentFolderID *uint64 `json:"parent_folder_id"`
}

type folderPatchReq struct {
	Name           *string `json:"name"`
	ParentFolderID *uint64 `json:"parent_folder_id"`
}

type folderResp struct {
	ID             uint64    `json:"id"`
	Name           string    `json:"name"`
	ParentFolderID *uint64   `json:"parent_folder_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func newFolderResp(f *model.Folder) folderResp {
	return folderResp{ID: f.ID, Name: f.Name, ParentFolderID: f.ParentFolderID, CreatedAt: f.CreatedAt}
}

// Create adds a folder. A parent reference must point at an existing folder
// of the same user.
func (h *FolderHandler) Create(c echo.Context) error {
	var req folderReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	var v validator
	v.length("name", req.Name, 1, 64)
	if err := v.err(); err != nil {
		return err
	}

	userID := middleware.TokenData(c).UserID
	repo := repository.NewFolderRepo(h.DB)
	if req.ParentFolderID != nil {
		if err := repo.Exists(c.Request().Context(), *req.ParentFolderID, userID); err != nil {
			return err
		}
	}
	folder := &model.Folder{
		OwnerUserID:    userID,
		ParentFolderID: req.ParentFolderID,
		Name:           req.Name,
		CreatedAt:      time.Now().UTC(),
	}
	if err := repo.Create(c.Request().Context(), folder); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newFolderResp(folder))
}

// List returns one page of the user's folders.
func (h *FolderHandler) List(c echo.Context) error {
	p := bindPagination(c)
	folders, total, err := repository.NewFolderRepo(h.DB).List(c.Request().Context(),
		middleware.TokenData(c).UserID, p)
	if err != nil {
		return err
	}
	items := make([]folderResp, 0, len(folders))
	for _, f := range folders {
		items = append(items, newFolderResp(f))
	}
	return c.JSON(http.StatusOK, newPaginated(items, total, p))
}

// Get returns one folder.
func (h *FolderHandler) Get(c echo.Context) error {
	folderID, err := pathID(c, "folder_id")
	if err != nil {
		return err
	}
	folder, err := repository.NewFolderRepo(h.DB).GetByID(c.Request().Context(),
		folderID, middleware.TokenData(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newFolderResp(folder))
}

// Update replaces name and parent.
func (h *FolderHandler) Update(c echo.Context) error {
	var req folderReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	var v validator
	v.length("name", req.Name, 1, 64)
	if err := v.err(); err != nil {
		return err
	}
	return h.applyUpdate(c, func(f *model.Folder) {
		f.Name = req.Name
		f.ParentFolderID = req.ParentFolderID
	})
}

// Patch updates only the provided fields. Clearing the parent requires PUT:
// with PATCH an absent parent_folder_id means "leave unchanged".
func (h *FolderHandler) Patch(c echo.Context) error {
	var req folderPatchReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	var v validator
	if req.Name != nil {
		v.length("name", *req.Name, 1, 64)
	}
	if err := v.err(); err != nil {
		return err
	}
	return h.applyUpdate(c, func(f *model.Folder) {
		if req.Name != nil {
			f.Name = *req.Name
		}
		if req.ParentFolderID != nil {
			f.ParentFolderID = req.ParentFolderID
		}
	})
}

func (h *FolderHandler) applyUpdate(c echo.Context, mutate func(f *model.Folder)) error {
	folderID, err := pathID(c, "folder_id")
	if err != nil {
		return err
	}
	userID := middleware.TokenData(c).UserID
	repo := repository.NewFolderRepo(h.DB)
	folder, err := repo.GetByID(c.Request().Context(), folderID, userID)
	if err != nil {
		return err
	}
	mutate(folder)
	if folder.ParentFolderID != nil {
		if *folder.ParentFolderID == folder.ID {
			var v validator
			v.add("parent_folder_id", "folder cannot be its own parent")
			return v.err()
		}
		if err := repo.Exists(c.Request().Context(), *folder.ParentFolderID, userID); err != nil {
			return err
		}
	}
	if err := repo.Update(c.Request().Context(), folder); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newFolderResp(folder))
}

// Delete removes the folder and, through the FK cascade, everything inside
// it.
func (h *FolderHandler) Delete(c echo.Context) error {
	folderID, err := pathID(c, "folder_id")
	if err != nil {
		return err
	}
	if err := repository.NewFolderRepo(h.DB).Delete(c.Request().Context(),
		folderID, middleware.TokenData(c).UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// pathID parses a numeric path parameter; anything unparsable is a 422.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		var v validator
		v.add(name, "invalid identifier")
		return 0, v.err()
	}
	return id, nil
}
