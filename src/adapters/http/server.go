package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"hbnb/src/domain"
)

// Server expõe o pool em modo somente leitura.
type Server struct {
	logger *slog.Logger
	server *http.Server
	mux    *http.ServeMux
	port   int
	store  domain.Storage

	// o storage não é seguro para chamadas concorrentes; as requisições entram uma por vez
	mu sync.Mutex
}

// NewServer cria uma nova instância do servidor
func NewServer(logger *slog.Logger, port int, store domain.Storage) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	server := &Server{
		mux:    http.NewServeMux(),
		port:   port,
		logger: logger,
		store:  store,
	}

	server.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      server.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	server.mux.HandleFunc("GET /v1/stats", server.serialized(server.GetStats))
	server.mux.HandleFunc("GET /v1/{class}", server.serialized(server.ListModels))
	server.mux.HandleFunc("GET /v1/{class}/{id}", server.serialized(server.GetModel))
	server.mux.HandleFunc("GET /v1/{class}/{id}/{relation}", server.serialized(server.GetRelated))

	return server
}

// Handler devolve o roteador, usado pelos testes com httptest.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) serialized(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		h(w, r)
	}
}

// Start inicia o servidor HTTP. Retorna quando o listener falha ou o servidor é encerrado.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("Server.Start - listen on %s: %w", s.server.Addr, err)
	}

	s.logger.Info("Server started", "port", s.port)

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("Server.Start - %w", err)
	}
	return nil
}

// Shutdown encerra o servidor HTTP de forma graciosa
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
