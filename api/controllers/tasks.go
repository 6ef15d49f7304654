package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/verdantlabs/farmpilot-backend/api/middleware"
	"github.com/verdantlabs/farmpilot-backend/api/responses"
	"github.com/verdantlabs/farmpilot-backend/api/validators"
	"github.com/verdantlabs/farmpilot-backend/internal/profile"
	"github.com/verdantlabs/farmpilot-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/farmpilot-backend/pkg/errors"
	"github.com/verdantlabs/farmpilot-backend/pkg/logger"
)

func ListTasks(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := middleware.AccountIDFromContext(r.Context())
		tasks, err := svc.ListTasks(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if tasks == nil {
			tasks = []profile.Task{}
		}
		responses.WriteSuccess(w, map[string]any{"tasks": tasks})
	}
}

type createTaskRequest struct {
	Title    string `json:"title" validate:"required,max=240"`
	DueDate  string `json:"due_date" validate:"required"`
	Priority string `json:"priority"`
}

func CreateTask(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTaskRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		priority := enums.TaskPriorityMedium
		if req.Priority != "" {
			parsed, err := enums.ParseTaskPriority(req.Priority)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority"))
				return
			}
			priority = parsed
		}

		accountID := middleware.AccountIDFromContext(r.Context())
		task, err := svc.AddTask(r.Context(), accountID, req.Title, req.DueDate, priority)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, task)
	}
}

// ToggleTask flips completion for one task and recomputes the completed-dates
// calendar as a side effect.
func ToggleTask(svc profile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID, err := uuid.Parse(chi.URLParam(r, "taskId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid task id"))
			return
		}

		accountID := middleware.AccountIDFromContext(r.Context())
		task, err := svc.ToggleTask(r.Context(), accountID, taskID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, task)
	}
}
