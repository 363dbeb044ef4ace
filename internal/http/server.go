// Package http exposes the account book as a JSON API.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/cache"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/core"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/ledger"
	applog "github.com/Masaya-j9/account-book-monorepo-sub001/internal/log"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/middleware/ratelimit"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/middleware/security"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/middleware/trace"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/services"
)

type Server struct {
	http.Server

	backend      ledger.Backend
	transactions *services.TransactionService
	auth         *services.AuthService

	tracer  *trace.Middleware
	limiter *ratelimit.Limiter

	// Month overviews are the hottest read; one write invalidates every
	// cached month of that user.
	overviewCache *cache.LRUCache[core.MonthOverview]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, backend ledger.Backend, transactions *services.TransactionService, auth *services.AuthService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		backend:       backend,
		transactions:  transactions,
		auth:          auth,
		tracer:        trace.NewMiddleware(extractClientIP),
		limiter:       ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		overviewCache: cache.NewLRUCache[core.MonthOverview](100, 5*time.Minute),
		cacheManager:  cache.NewManager(),
	}
	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/api/register", s.handleRegister)
	mux.HandleFunc("/api/login", s.handleLogin)
	mux.HandleFunc("/api/logout", s.handleLogout)

	mux.HandleFunc("/api/transactions", s.requireAuth(s.handleTransactions))
	mux.HandleFunc("/api/transactions/", s.requireAuth(s.handleTransactionByID))
	mux.HandleFunc("/api/overview", s.requireAuth(s.handleOverview))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(extractClientIP)
	logged := applog.Middleware(applog.New(applog.Config{
		Handler:   slog.Default().Handler(),
		Component: applog.ComponentHTTP,
	}))

	s.Server = http.Server{
		Addr:    addr,
		Handler: headers.Middleware(s.tracer.Middleware(limited(logged(mux)))),
	}

	return s
}

// Shutdown stops the HTTP server and the background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// extractClientIP honors the usual proxy headers before falling back to the
// socket address.
func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func overviewCacheKey(userID int64, year, month int) string {
	return fmt.Sprintf("overview:%d:%04d-%02d", userID, year, month)
}

func overviewCachePrefix(userID int64) string {
	return fmt.Sprintf("overview:%d:", userID)
}
