package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pwstorage/pwstorage/internal/apperror"
	"github.com/pwstorage/pwstorage/internal/auth"
	"github.com/pwstorage/pwstorage/internal/middleware"
	"github.com/pwstorage/pwstorage/internal/model"
	"github.com/pwstorage/pwstorage/internal/repository"
	"github.com/pwstorage/pwstorage/internal/security"
)

// UserHandler serves /users: registration and the /users/me profile.
// Account deletion is delegated to the auth service because it has to tear
// down sessions and cache entries, not just the user row.
type UserHandler struct {
	DB   *sql.DB
	Auth *auth.Service
}

func NewUserHandler(db *sql.DB, authSvc *auth.Service) *UserHandler {
	return &UserHandler{DB: db, Auth: authSvc}
}

type userCreateReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type userUpdateReq struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type userPatchReq struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
}

type userResp struct {
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

func newUserResp(u *model.User) userResp {
	return userResp{Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt, DeletedAt: u.DeletedAt}
}

// Create registers a user together with its settings row. Email uniqueness
// is checked among active users inside the same transaction as the insert.
func (h *UserHandler) Create(c echo.Context) error {
	var req userCreateReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	var v validator
	v.email("email", req.Email)
	v.userName("name", req.Name)
	v.password("password", req.Password)
	if err := v.err(); err != nil {
		return err
	}

	user := &model.User{
		Email:        repository.NormalizeEmail(req.Email),
		PasswordHash: security.HashPassword(req.Password),
		Name:         req.Name,
		Status:       model.StatusActive,
		CreatedAt:    time.Now().UTC(),
	}
	err := repository.WithSerializable(c.Request().Context(), h.DB, func(tx *sql.Tx) error {
		users := repository.NewUserRepo(tx)
		exists, err := users.EmailExists(c.Request().Context(), user.Email)
		if err != nil {
			return err
		}
		if exists {
			return apperror.UserEmailAlreadyExists(user.Email)
		}
		if err := users.Create(c.Request().Context(), user); err != nil {
			return err
		}
		_, err = repository.NewSettingsRepo(tx).Create(c.Request().Context(), user.ID)
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResp(user))
}

// GetMe returns the authenticated user's profile.
func (h *UserHandler) GetMe(c echo.Context) error {
	user, err := repository.NewUserRepo(h.DB).GetByID(c.Request().Context(), middleware.TokenData(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResp(user))
}

// UpdateMe replaces email and name.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req userUpdateReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	var v validator
	v.email("email", req.Email)
	v.userName("name", req.Name)
	if err := v.err(); err != nil {
		return err
	}
	return h.applyUpdate(c, func(u *model.User) {
		u.Email = repository.NormalizeEmail(req.Email)
		u.Name = req.Name
	})
}

// PatchMe updates only the provided fields.
func (h *UserHandler) PatchMe(c echo.Context) error {
	var req userPatchReq
	if err := bindBody(c, &req); err != nil {
		return err
	}
	var v validator
	if req.Email != nil {
		v.email("email", *req.Email)
	}
	if req.Name != nil {
		v.userName("name", *req.Name)
	}
	if err := v.err(); err != nil {
		return err
	}
	return h.applyUpdate(c, func(u *model.User) {
		if req.Email != nil {
			u.Email = repository.NormalizeEmail(*req.Email)
		}
		if req.Name != nil {
			u.Name = *req.Name
		}
	})
}

func (h *UserHandler) applyUpdate(c echo.Context, mutate func(u *model.User)) error {
	var user *model.User
	err := repository.WithSerializable(c.Request().Context(), h.DB, func(tx *sql.Tx) error {
		users := repository.NewUserRepo(tx)
		var err error
		user, err = users.GetByID(c.Request().Context(), middleware.TokenData(c).UserID)
		if err != nil {
			return err
		}
		oldEmail := user.Email
		mutate(user)
		if user.Email != oldEmail {
			if err := h.raiseForEmail(c.Request().Context(), users, user.Email); err != nil {
				return err
			}
		}
		return users.Update(c.Request().Context(), user)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResp(user))
}

func (h *UserHandler) raiseForEmail(ctx context.Context, users *repository.UserRepo, email string) error {
	exists, err := users.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return apperror.UserEmailAlreadyExists(email)
	}
	return nil
}

// DeleteMe soft-deletes the account and revokes everything attached to it.
func (h *UserHandler) DeleteMe(c echo.Context) error {
	if err := h.Auth.DeleteAccount(c.Request().Context(), middleware.TokenData(c).UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
