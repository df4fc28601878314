// Package api is the HTTP front door: a REST surface mirroring the original
// client contract plus a JSON-RPC endpoint for programmatic clients. Handlers
// only parse, delegate and map errors; all behavior lives in the service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stellar/go/support/log"

	"github.com/dotandev/vaultrelay/internal/contract"
	"github.com/dotandev/vaultrelay/internal/rpc"
	"github.com/dotandev/vaultrelay/internal/service"
)

// RelayService is what the front door needs from the backend service.
type RelayService interface {
	PrepareDeposit(ctx context.Context, amount, userAddress string) (string, error)
	PrepareWithdraw(ctx context.Context, amount, userAddress string) (string, error)
	PrepareCreateVault(ctx context.Context, p contract.VaultParams, userAddress string) (string, error)
	SubmitSigned(ctx context.Context, signedXDR string) (*service.SubmitOutcome, error)
	ReadYields(ctx context.Context, userAddress string) (*service.YieldReport, error)
	ActiveVault() (string, bool)
	SetActiveVault(contractID string) error
	Health(ctx context.Context) (*rpc.Health, error)
}

// Server serves the relay's HTTP API.
type Server struct {
	relay RelayService
	log   *log.Entry
	srv   *http.Server
}

func New(addr string, relay RelayService, logger *log.Entry) *Server {
	s := &Server{relay: relay, log: logger}
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		// Submissions block through the full poll schedule (~31s worst case).
		WriteTimeout: 90 * time.Second,
	}
	return s
}

// Handler returns the full route table; exposed separately for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Post("/api/deposit", s.handleDeposit)
	r.Post("/api/withdraw", s.handleWithdraw)
	r.Post("/api/create-vault", s.handleCreateVault)
	r.Post("/api/submit", s.handleSubmit)
	r.Get("/api/yields", s.handleYields)
	r.Get("/api/active-vault", s.handleGetActiveVault)
	r.Post("/api/active-vault", s.handleSetActiveVault)
	r.Get("/healthz", s.handleHealth)

	r.Mount("/rpc", s.jsonRPCHandler())
	return r
}

func (s *Server) ListenAndServe() error {
	s.log.WithField("addr", s.srv.Addr).Info("http server listening")
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// The clients are browser apps (Telegram mini app); keep the policy wide
// open like the original deployment.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
