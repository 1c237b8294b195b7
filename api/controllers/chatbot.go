package controllers

import (
	"context"
	"net/http"

	"github.com/worldtek/canteen-backend/api/responses"
	"github.com/worldtek/canteen-backend/api/validators"
	chatbotsvc "github.com/worldtek/canteen-backend/internal/chatbot"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
	"github.com/worldtek/canteen-backend/pkg/logger"
)

type chatReplySender interface {
	SendText(ctx context.Context, to, text string) error
}

type inboundMessageRequest struct {
	From string `json:"from" validate:"required"`
	Text string `json:"text"`
}

// ChatbotWebhook receives inbound WhatsApp messages, advances the
// conversation and sends the reply back over the same channel.
func ChatbotWebhook(svc chatbotsvc.Service, sender chatReplySender, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chatbot service unavailable"))
			return
		}

		var payload inboundMessageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reply, err := svc.HandleInbound(r.Context(), payload.From, payload.Text)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if sender != nil && reply != "" {
			if err := sender.SendText(r.Context(), payload.From, reply); err != nil && logg != nil {
				logg.Error(r.Context(), "chatbot.reply.send_failed", err)
			}
		}

		responses.WriteSuccess(w, map[string]string{"reply": reply})
	}
}
