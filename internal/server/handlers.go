package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"arcade/internal/auth"
	"arcade/internal/chat"
	"arcade/internal/config"
	"arcade/internal/db"
	"arcade/internal/guess"
	"arcade/internal/memorymatch"
	"arcade/internal/reaction"
	"arcade/internal/scoring"
	"arcade/internal/session"
	"arcade/internal/tictactoe"
	"arcade/internal/wshub"
)

const sessionCookie = "player_id"

type Server struct {
	Sessions *session.Store
	Hub      *wshub.Hub
	DB       *db.DB // nil if no database configured
	// NewChat builds a chat client for the caller's credential; nil when
	// chat is not configured.
	NewChat func(token auth.StaticToken) chat.Service
	Cfg     config.Config
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// withSession resolves the session from the player_id cookie.
func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "no session, POST /session first")
			return
		}
		sess := s.Sessions.Get(cookie.Value)
		if sess == nil {
			writeError(w, http.StatusUnauthorized, "session expired")
			return
		}
		h(w, r, sess)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] encoding response: %v\n", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeResult maps engine errors onto statuses. Rejected moves still carry
// the message so the client can show it inline.
func writeResult(w http.ResponseWriter, v any, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, v)
	case errors.Is(err, memorymatch.ErrOutOfRange), errors.Is(err, tictactoe.ErrOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, memorymatch.ErrClosed), errors.Is(err, reaction.ErrClosed), errors.Is(err, tictactoe.ErrClosed):
		writeError(w, http.StatusGone, err.Error())
	default:
		writeError(w, http.StatusConflict, err.Error())
	}
}

func pathInt(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(r.PathValue(name))
	return n, err == nil
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if sess := s.Sessions.Get(cookie.Value); sess != nil {
			writeJSON(w, http.StatusOK, map[string]string{"id": sess.ID})
			return
		}
	}

	sess := s.Sessions.Create(auth.FromRequest(r))
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	fmt.Printf("[Handle:CreateSession] Created session %s\n", sess.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"id": sess.ID})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.Sessions.Delete(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.Memory.State())
}

func (s *Server) handleMemoryFlip(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	i, ok := pathInt(r, "index")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid card index")
		return
	}
	st, err := sess.Memory.Flip(i)
	writeResult(w, st, err)
}

func (s *Server) handleMemoryReset(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.Memory.Reset())
}

func (s *Server) handleReaction(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.Reaction.Snapshot())
}

func (s *Server) handleReactionClick(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	snap, err := sess.Reaction.Click()
	writeResult(w, snap, err)
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.Guess.State())
}

func (s *Server) handleGuessSubmit(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	st, err := sess.Guess.Guess(r.FormValue("guess"))
	if errors.Is(err, guess.ErrFinished) {
		writeJSON(w, http.StatusConflict, st)
		return
	}
	writeResult(w, st, err)
}

func (s *Server) handleGuessReset(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.Guess.Reset())
}

func (s *Server) handleTicTacToe(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.TicTacToe.State())
}

func (s *Server) handleTicTacToePlay(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	cell, ok := pathInt(r, "cell")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid cell")
		return
	}
	st, err := sess.TicTacToe.Play(cell)
	writeResult(w, st, err)
}

func (s *Server) handleTicTacToeReset(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.TicTacToe.Reset())
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	game, ok := scoring.ParseGame(r.PathValue("game"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown game")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()
	writeJSON(w, http.StatusOK, sess.Leaders.Load(ctx, game, sess.Scores.Refresh(game)))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	msgChan := sess.Broadcaster.Subscribe()
	defer sess.Broadcaster.Unsubscribe(msgChan)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\n", msg.Event)
			for _, line := range strings.Split(msg.Data, "\n") {
				fmt.Fprintf(w, "data: %s\n", line)
			}
			fmt.Fprint(w, "\n")
			flusher.Flush()
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		if err := s.DB.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db_error", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": len(s.Sessions.List()),
		"sockets":  s.Hub.Count(),
	})
}

func (s *Server) requestTimeout() time.Duration {
	if s.Cfg.RequestTimeout > 0 {
		return s.Cfg.RequestTimeout
	}
	return chat.DefaultTimeout
}
