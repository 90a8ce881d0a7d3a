package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storepos-backend/api/responses"
	"github.com/angelmondragon/storepos-backend/api/validators"
	"github.com/angelmondragon/storepos-backend/internal/users"
	"github.com/angelmondragon/storepos-backend/pkg/enums"
	"github.com/angelmondragon/storepos-backend/pkg/logger"
)

type createUserRequest struct {
	Username string     `json:"username" validate:"required,min=3,max=50"`
	Email    string     `json:"email" validate:"required,email"`
	Title    string     `json:"title" validate:"max=100"`
	Password string     `json:"password" validate:"required,min=6"`
	Role     string     `json:"role" validate:"required"`
	StoreID  *uuid.UUID `json:"store_id,omitempty"`
	Status   string     `json:"status,omitempty"`
}

type updateUserRequest struct {
	Email      *string    `json:"email,omitempty" validate:"omitempty,email"`
	Title      *string    `json:"title,omitempty" validate:"omitempty,max=100"`
	Password   *string    `json:"password,omitempty" validate:"omitempty,min=6"`
	Role       *string    `json:"role,omitempty"`
	StoreID    *uuid.UUID `json:"store_id,omitempty"`
	ClearStore bool       `json:"clear_store,omitempty"`
	Status     *string    `json:"status,omitempty"`
}

func userRole(raw string) enums.Role {
	return enums.Role(strings.ToLower(strings.TrimSpace(raw)))
}

func UserList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "user")
			return
		}
		items, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func UserGet(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "user")
			return
		}
		id, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func UserCreate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "user")
			return
		}
		var payload createUserRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Create(r.Context(), users.CreateUserInput{
			Username: payload.Username,
			Email:    payload.Email,
			Title:    payload.Title,
			Password: payload.Password,
			Role:     userRole(payload.Role),
			StoreID:  payload.StoreID,
			Status:   recordStatus(payload.Status),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func UserUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "user")
			return
		}
		id, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateUserRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := users.UpdateUserInput{
			Email:      payload.Email,
			Title:      payload.Title,
			Password:   payload.Password,
			StoreID:    payload.StoreID,
			ClearStore: payload.ClearStore,
		}
		if payload.Role != nil {
			role := userRole(*payload.Role)
			input.Role = &role
		}
		if payload.Status != nil {
			status := recordStatus(*payload.Status)
			input.Status = &status
		}

		item, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func UserDelete(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "user")
			return
		}
		viewer, ok := requireViewer(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), viewer.UserID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
