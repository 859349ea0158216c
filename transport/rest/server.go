package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

// Handler - builds the REST routes. outcomes and results may be nil, the routes reading them are then not served.
func Handler(logger *slog.Logger, rooms roomUseCase, outcomes outcomeRepo, results resultRepo) http.Handler {
	h := &handlers{
		logger:   logger.With("component", "rest"),
		rooms:    rooms,
		outcomes: outcomes,
		results:  results,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", welcomeHandler)
	mux.HandleFunc("GET /ping", pingHandler)
	mux.HandleFunc("POST /create-room", h.createRoom)
	mux.HandleFunc("POST /join-room", h.joinRoom)
	if outcomes != nil {
		mux.HandleFunc("GET /outcomes", h.recentOutcomes)
		mux.HandleFunc("GET /outcomes/{roomCode}", h.roomOutcomes)
	}
	if results != nil {
		mux.HandleFunc("GET /wins/{identity}", h.wins)
	}

	return cors(mux)
}

// Start - serves handler on port until ctx is canceled.
func Start(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// cors - allows any origin to call GET and POST routes.
func cors(next http.Handler) http.Handler {
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
