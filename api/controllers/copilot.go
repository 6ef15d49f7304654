package controllers

import (
	"net/http"

	"github.com/verdantlabs/farmpilot-backend/api/middleware"
	"github.com/verdantlabs/farmpilot-backend/api/responses"
	"github.com/verdantlabs/farmpilot-backend/api/validators"
	"github.com/verdantlabs/farmpilot-backend/internal/copilot"
	"github.com/verdantlabs/farmpilot-backend/internal/profile"
	"github.com/verdantlabs/farmpilot-backend/pkg/llm"
	"github.com/verdantlabs/farmpilot-backend/pkg/logger"
	"github.com/verdantlabs/farmpilot-backend/pkg/types"
)

type chatTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=4000"`
}

type chatRequest struct {
	Message string     `json:"message" validate:"required,max=4000"`
	History []chatTurn `json:"history" validate:"omitempty,max=20,dive"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat answers a free-form question with the farm profile as grounding
// context. A failed upstream call degrades to a canned reply plus a notice.
func Chat(profiles profile.Service, svc copilot.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accountID := middleware.AccountIDFromContext(r.Context())
		p, err := profiles.GetProfile(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history := make([]llm.Message, 0, len(req.History))
		for _, turn := range req.History {
			history = append(history, llm.Message{Role: turn.Role, Content: turn.Content})
		}

		reply, degraded := svc.Chat(r.Context(), p, history, req.Message)

		var notices []types.Notice
		if degraded {
			notices = append(notices, types.Notice{
				Source:  "copilot",
				Message: "Advisory insights are running in offline mode.",
			})
		}
		responses.WriteSuccessNotices(w, chatResponse{Reply: reply}, notices)
	}
}
