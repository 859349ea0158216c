package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rocketscienceinc/arena-backend/internal/apperror"
	"github.com/rocketscienceinc/arena-backend/internal/entity"
	"github.com/rocketscienceinc/arena-backend/internal/repository"
)

const maxBodySize = 16 * 1024

type roomUseCase interface {
	CreateRoom(ctx context.Context) (string, error)
	CheckJoin(ctx context.Context, code string) error
}

type outcomeRepo interface {
	ListByRoom(ctx context.Context, roomCode string) ([]entity.Outcome, error)
	Recent(ctx context.Context, limit int64) ([]entity.Outcome, error)
}

type resultRepo interface {
	CountWins(ctx context.Context, identity string) (int, error)
}

type createRoomResponse struct {
	RoomCode string `json:"roomCode"`
}

type joinRoomRequest struct {
	RoomCode string `json:"roomCode"`
}

type joinRoomResponse struct {
	Success bool `json:"success"`
}

type winsResponse struct {
	Identity string `json:"identity"`
	Wins     int    `json:"wins"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	logger   *slog.Logger
	rooms    roomUseCase
	outcomes outcomeRepo
	results  resultRepo
}

func (that *handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "createRoom")

	code, err := that.rooms.CreateRoom(r.Context())
	if err != nil {
		log.Error("failed to create room", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	writeJSON(w, http.StatusOK, createRoomResponse{RoomCode: code})
}

func (that *handlers) joinRoom(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "joinRoom")

	var req joinRoomRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	err := that.rooms.CheckJoin(r.Context(), req.RoomCode)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, joinRoomResponse{Success: true})
	case errors.Is(err, apperror.ErrRoomNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Room not found"})
	case errors.Is(err, apperror.ErrRoomFull):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Room is full"})
	default:
		log.Error("failed to check room", "roomCode", req.RoomCode, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
	}
}

// recentOutcomes - lists the latest decided matches, newest first.
func (that *handlers) recentOutcomes(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "recentOutcomes")

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid limit"})
			return
		}
		limit = parsed
	}

	outcomes, err := that.outcomes.Recent(r.Context(), limit)
	if err != nil {
		log.Error("failed to list outcomes", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	writeJSON(w, http.StatusOK, outcomes)
}

// roomOutcomes - lists what a room's decisions looked like, oldest first.
func (that *handlers) roomOutcomes(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "roomOutcomes")

	roomCode := r.PathValue("roomCode")

	outcomes, err := that.outcomes.ListByRoom(r.Context(), roomCode)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, outcomes)
	case errors.Is(err, repository.ErrOutcomeNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "No outcome for this room"})
	default:
		log.Error("failed to list room outcomes", "roomCode", roomCode, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
	}
}

// wins - counts the registrable wins credited to an identity.
func (that *handlers) wins(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "wins")

	identity := r.PathValue("identity")

	count, err := that.results.CountWins(r.Context(), identity)
	if err != nil {
		log.Error("failed to count wins", "identity", identity, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	writeJSON(w, http.StatusOK, winsResponse{Identity: identity, Wins: count})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}
