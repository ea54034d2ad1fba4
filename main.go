package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/directory"
	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/ledger"
	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/srv"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func wsHandler(h *srv.Hub, gw *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := TokenFromRequestParts(r.Header.Get("Authorization"), r.URL.Query().Get("token"))
		ident := GuestIdentity()
		if tok != "" {
			id, err := gw.ParseToken(tok)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			ident = id
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		c := srv.NewConn(conn, ident.PlayerID, ident.Name, ident.Address)
		go h.HandleConn(c)
	}
}

func main() {
	cfg := GetConfig()

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	gw, err := NewGateway(cfg.JWTKeyPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("gateway key setup failed")
	}
	store, err := directory.NewFileStore(cfg.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("player directory setup failed")
	}

	var sub ledger.Submitter = ledger.Disabled{}
	if cfg.LedgerURL != "" {
		sub = ledger.NewHTTPSubmitter(cfg.LedgerURL)
		logger.Info().Str("url", cfg.LedgerURL).Msg("score ledger enabled")
	}

	hub := srv.NewHub(store, sub, logger.With().Str("component", "hub").Logger())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler(hub, gw))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })

	s := &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	logger.Info().Str("addr", cfg.Addr).Msg("server listening")
	if err := s.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
