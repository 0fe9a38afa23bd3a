package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arcade/internal/auth"
	"arcade/internal/chat"
	"arcade/internal/config"
	"arcade/internal/db"
	"arcade/internal/kv"
	"arcade/internal/scoring"
	"arcade/internal/session"
	"arcade/internal/wshub"
)

func Run() error {
	appCfg := config.Load()
	httpClient := &http.Client{Timeout: appCfg.RequestTimeout}

	srv := &Server{
		Hub: wshub.NewHub(),
		Cfg: appCfg,
	}

	var bests kv.Store = kv.NewMemory()
	if appCfg.DatabaseURL != "" {
		database, err := db.Connect(appCfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (keeping personal bests in memory)\n", err)
		} else {
			if err := database.Migrate(); err != nil {
				log.Printf("[DB] Migration failed: %v\n", err)
			}
			srv.DB = database
			bests = database.Bests()
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, keeping personal bests in memory")
	}

	sessCfg := session.Config{
		TTL:          appCfg.SessionTTL,
		Bests:        bests,
		ScoreTimeout: appCfg.RequestTimeout,
	}
	if appCfg.JWTSecret != "" {
		sessCfg.SigningKey = []byte(appCfg.JWTSecret)
	} else {
		log.Println("[Auth] JWT_SECRET not set, player keys come from unverified tokens")
	}
	if appCfg.ScoresURL != "" {
		sessCfg.NewScores = func(token auth.StaticToken) scoring.Writer {
			return scoring.NewClient(appCfg.ScoresURL, httpClient, token)
		}
		sessCfg.Leaders = scoring.NewClient(appCfg.ScoresURL, httpClient, nil)
	} else {
		log.Println("[Scores] SCORES_URL not set, leaderboards stay empty")
	}
	srv.Sessions = session.NewStore(sessCfg)

	if appCfg.ChatAPIURL != "" {
		srv.NewChat = func(token auth.StaticToken) chat.Service {
			return chat.NewClient(appCfg.ChatAPIURL, httpClient, token)
		}
	} else {
		log.Println("[Chat] CHAT_API_URL not set, chat disabled")
	}

	addr := "0.0.0.0:" + appCfg.Port
	fmt.Printf("Server listening on http://localhost:%s\n", appCfg.Port)
	return http.ListenAndServe(addr, srv.Routes())
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /session", s.handleCreateSession)
	mux.HandleFunc("DELETE /session", s.handleDeleteSession)

	mux.HandleFunc("GET /memory", s.withSession(s.handleMemory))
	mux.HandleFunc("POST /memory/flip/{index}", s.withSession(s.handleMemoryFlip))
	mux.HandleFunc("POST /memory/reset", s.withSession(s.handleMemoryReset))

	mux.HandleFunc("GET /reaction", s.withSession(s.handleReaction))
	mux.HandleFunc("POST /reaction/click", s.withSession(s.handleReactionClick))

	mux.HandleFunc("GET /guess", s.withSession(s.handleGuess))
	mux.HandleFunc("POST /guess", s.withSession(s.handleGuessSubmit))
	mux.HandleFunc("POST /guess/reset", s.withSession(s.handleGuessReset))

	mux.HandleFunc("GET /tictactoe", s.withSession(s.handleTicTacToe))
	mux.HandleFunc("POST /tictactoe/play/{cell}", s.withSession(s.handleTicTacToePlay))
	mux.HandleFunc("POST /tictactoe/reset", s.withSession(s.handleTicTacToeReset))

	mux.HandleFunc("GET /leaderboard/{game}", s.withSession(s.handleLeaderboard))
	mux.HandleFunc("GET /events", s.withSession(s.handleEvents))

	mux.HandleFunc("GET /chat/ws", s.handleChatSocket)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}
