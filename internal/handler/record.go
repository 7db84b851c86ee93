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
	"github.com/pwstorage/pwstorage/internal/security"
)

// RecordHandler serves /records. Content is encrypted with the per-session
// encryption key before it reaches the repository and decrypted on the way
// out; listings never carry content at all.
type RecordHandler struct {
	DB     *sql.DB
	Cipher *security.ContentCipher
}

func NewRecordHandler(db *sql.DB, cipher *security.ContentCipher) *RecordHandler {
	return &RecordHandler{DB: db, Cipher: cipher}
}

type recordCreateReq struct {
	FolderID   *uint64 `json:"folder_id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	RecordType string  `json:"record_type"`
	IsFavorite bool    `json:"is_favorite"`
}

type recordUpdateReq struct {
	FolderID   *uint64 `json:"folder_id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	IsFavorite bool    `json:"is_favorite"`
}

type recordPatchReq struct {
	FolderID   *uint64 `json:"folder_id"`
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	IsFavorite *bool   `json:"is_favorite"`
}

type recordResp struct {
	ID         uint64    `json:"id"`
	FolderID   *uint64   `json:"folder_id"`
	Title      string    `json:"title"`
	Content    *string   `json:"content"`
	RecordType string    `json:"record_type"`
	IsFavorite bool      `json:"is_favorite"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newRecordResp(r *model.Record, content *string) recordResp {
	return recordResp{
		ID:         r.ID,
		FolderID:   r.FolderID,
		Title:      r.Title,
		Content:    content,
		RecordType: string(r.RecordType),
		IsFavorite: r.IsFavorite,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// Create adds a record with encrypted content.
func (h *RecordHandler) Create(c echo.Context) error {
	var req recordCreateReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	recordType := model.RecordType(req.RecordType)
	var v validator
	v.length("title", req.Title, 1, 128)
	v.length("content", req.Content, 1, 8192)
	if !recordType.Valid() {
		v.add("record_type", "invalid record type")
	}
	if err := v.err(); err != nil {
		return err
	}

	data := middleware.TokenData(c)
	if req.FolderID != nil {
		if err := repository.NewFolderRepo(h.DB).Exists(c.Request().Context(), *req.FolderID, data.UserID); err != nil {
			return err
		}
	}
	encrypted, err := h.Cipher.Encrypt(req.Content, data.EncryptionKey)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rec := &model.Record{
		OwnerUserID: data.UserID,
		FolderID:    req.FolderID,
		RecordType:  recordType,
		Title:       req.Title,
		Content:     encrypted,
		IsFavorite:  req.IsFavorite,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repository.NewRecordRepo(h.DB).Create(c.Request().Context(), rec); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newRecordResp(rec, &req.Content))
}

// Get returns one record with its content decrypted under the session key.
func (h *RecordHandler) Get(c echo.Context) error {
	recordID, err := pathID(c, "record_id")
	if err != nil {
		return err
	}
	data := middleware.TokenData(c)
	rec, err := repository.NewRecordRepo(h.DB).GetByID(c.Request().Context(), recordID, data.UserID)
	if err != nil {
		return err
	}
	content, err := h.Cipher.Decrypt(rec.Content, data.EncryptionKey)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newRecordResp(rec, &content))
}

// List returns one page of records matching the query filters. Content is
// never included.
func (h *RecordHandler) List(c echo.Context) error {
	p := bindPagination(c)
	filter, err := bindRecordFilter(c)
	if err != nil {
		return err
	}
	records, total, err := repository.NewRecordRepo(h.DB).List(c.Request().Context(),
		middleware.TokenData(c).UserID, filter, p)
	if err != nil {
		return err
	}
	items := make([]recordResp, 0, len(records))
	for _, rec := range records {
		items = append(items, newRecordResp(rec, nil))
	}
	return c.JSON(http.StatusOK, newPaginated(items, total, p))
}

// Update replaces the record's mutable fields and re-encrypts content.
func (h *RecordHandler) Update(c echo.Context) error {
	var req recordUpdateReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	var v validator
	v.length("title", req.Title, 1, 128)
	v.length("content", req.Content, 1, 8192)
	if err := v.err(); err != nil {
		return err
	}
	return h.applyUpdate(c, func(rec *model.Record, plain *string) {
		rec.FolderID = req.FolderID
		rec.Title = req.Title
		rec.IsFavorite = req.IsFavorite
		*plain = req.Content
	})
}

// Patch updates only the provided fields.
func (h *RecordHandler) Patch(c echo.Context) error {
	var req recordPatchReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	var v validator
	if req.Title != nil {
		v.length("title", *req.Title, 1, 128)
	}
	if req.Content != nil {
		v.length("content", *req.Content, 1, 8192)
	}
	if err := v.err(); err != nil {
		return err
	}
	return h.applyUpdate(c, func(rec *model.Record, plain *string) {
		if req.FolderID != nil {
			rec.FolderID = req.FolderID
		}
		if req.Title != nil {
			rec.Title = *req.Title
		}
		if req.IsFavorite != nil {
			rec.IsFavorite = *req.IsFavorite
		}
		if req.Content != nil {
			*plain = *req.Content
		}
	})
}

// applyUpdate loads the record, decrypts its content, lets mutate adjust
// the fields (including the plaintext) and persists the re-encrypted
// result.
func (h *RecordHandler) applyUpdate(c echo.Context, mutate func(rec *model.Record, plain *string)) error {
	recordID, err := pathID(c, "record_id")
	if err != nil {
		return err
	}
	data := middleware.TokenData(c)
	repo := repository.NewRecordRepo(h.DB)
	rec, err := repo.GetByID(c.Request().Context(), recordID, data.UserID)
	if err != nil {
		return err
	}
	plain, err := h.Cipher.Decrypt(rec.Content, data.EncryptionKey)
	if err != nil {
		return err
	}
	mutate(rec, &plain)
	if rec.FolderID != nil {
		if err := repository.NewFolderRepo(h.DB).Exists(c.Request().Context(), *rec.FolderID, data.UserID); err != nil {
			return err
		}
	}
	rec.Content, err = h.Cipher.Encrypt(plain, data.EncryptionKey)
	if err != nil {
		return err
	}
	rec.UpdatedAt = time.Now().UTC()
	if err := repo.Update(c.Request().Context(), rec); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newRecordResp(rec, &plain))
}

// Delete removes the record.
func (h *RecordHandler) Delete(c echo.Context) error {
	recordID, err := pathID(c, "record_id")
	if err != nil {
		return err
	}
	if err := repository.NewRecordRepo(h.DB).Delete(c.Request().Context(),
		recordID, middleware.TokenData(c).UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// bindRecordFilter reads the listing filters from query parameters.
// Ordering accepts one column: the first of title_order_by,
// created_at_order_by, updated_at_order_by that is set wins.
func bindRecordFilter(c echo.Context) (repository.RecordFilter, error) {
	var (
		f repository.RecordFilter
		v validator
	)
	if raw := c.QueryParam("folder_id_eq"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			v.add("folder_id_eq", "invalid identifier")
		} else {
			f.FolderID = &id
		}
	}
	if raw := c.QueryParam("record_type_eq"); raw != "" {
		rt := model.RecordType(raw)
		if !rt.Valid() {
			v.add("record_type_eq", "invalid record type")
		} else {
			f.RecordType = &rt
		}
	}
	if raw := c.QueryParam("title_eq"); raw != "" {
		f.TitleEq = &raw
	}
	if raw := c.QueryParam("title_ilike"); raw != "" {
		f.TitleLike = &raw
	}
	if raw := c.QueryParam("is_favorite"); raw != "" {
		fav, err := strconv.ParseBool(raw)
		if err != nil {
			v.add("is_favorite", "invalid boolean")
		} else {
			f.IsFavorite = &fav
		}
	}
	bindTime := func(name string, dst **time.Time) {
		raw := c.QueryParam(name)
		if raw == "" {
			return
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			v.add(name, "invalid datetime")
			return
		}
		*dst = &t
	}
	bindTime("created_at_from", &f.CreatedFrom)
	bindTime("created_at_to", &f.CreatedTo)
	bindTime("updated_at_from", &f.UpdatedFrom)
	bindTime("updated_at_to", &f.UpdatedTo)

	for _, col := range []string{"title", "created_at", "updated_at"} {
		raw := c.QueryParam(col + "_order_by")
		if raw == "" {
			continue
		}
		if raw != "asc" && raw != "desc" {
			v.add(col+"_order_by", "must be asc or desc")
			continue
		}
		if f.OrderBy == "" {
			f.OrderBy = col
			f.OrderDesc = raw == "desc"
		}
	}
	if err := v.err(); err != nil {
		return repository.RecordFilter{}, err
	}
	return f, nil
}
