package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"arcade/internal/auth"
	"arcade/internal/chat"
	"arcade/internal/wshub"
)

// handleChatSocket serves one chat view over a WebSocket. Every state change
// is pushed as a "snapshot" message; commands arrive as wshub.ClientMessage.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	if s.NewChat == nil {
		writeError(w, http.StatusServiceUnavailable, "chat is not configured")
		return
	}
	userID := r.URL.Query().Get("user_id")
	companyID := r.URL.Query().Get("company_id")
	if userID == "" || companyID == "" {
		writeError(w, http.StatusBadRequest, "user_id and company_id are required")
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("[Chat] WebSocket accept error: %v\n", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := wshub.NewClient(uuid.NewString(), userID, companyID, conn)
	s.Hub.Register(client)
	defer s.Hub.Unregister(client.ID)
	go client.WritePump(ctx)

	view := chat.NewView(chat.Config{
		UserID:       userID,
		CompanyID:    companyID,
		Service:      s.NewChat(auth.FromRequest(r)),
		PollInterval: s.Cfg.ChatPoll,
		Timeout:      s.requestTimeout(),
		OnUpdate: func(st chat.Snapshot) {
			s.Hub.SendTo(client.ID, wshub.ServerMessage{Type: "snapshot", Data: st})
		},
	})
	defer view.Close()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Nudge:
				rctx, rcancel := context.WithTimeout(ctx, s.requestTimeout())
				view.Refresh(rctx)
				rcancel()
			}
		}
	}()

	openCtx, openCancel := context.WithTimeout(ctx, s.requestTimeout())
	view.Open(openCtx)
	openCancel()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && !errors.Is(err, context.Canceled) {
				log.Printf("[Chat] read: %v\n", err)
			}
			return
		}

		var msg wshub.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.Hub.SendTo(client.ID, wshub.ServerMessage{Type: "error", Error: "invalid message"})
			continue
		}
		s.handleChatCommand(ctx, client, view, msg)
	}
}

func (s *Server) handleChatCommand(ctx context.Context, client *wshub.Client, view *chat.View, msg wshub.ClientMessage) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout())
	defer cancel()

	switch msg.Type {
	case "filter":
		view.Filter(msg.Query)
	case "start":
		view.StartChat(ctx, msg.PeerID)
	case "select":
		view.Select(ctx, msg.ChatID)
	case "refresh":
		view.Refresh(ctx)
	case "send":
		st, err := view.Send(ctx, msg.Text)
		if err != nil {
			s.Hub.SendTo(client.ID, wshub.ServerMessage{Type: "error", Error: err.Error()})
			return
		}
		// A kept draft means the service rejected it.
		if st.Draft == "" {
			s.Hub.NudgeCompany(client.CompanyID, client.ID)
		}
	default:
		s.Hub.SendTo(client.ID, wshub.ServerMessage{Type: "error", Error: "unknown command " + msg.Type})
	}
}
