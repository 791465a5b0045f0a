package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/reclaimhq/reclaim/internal/ai"
	"github.com/reclaimhq/reclaim/internal/chat"
	"github.com/reclaimhq/reclaim/internal/match"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, gen ai.Generator, hub *chat.Hub, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{DB: db}
	matchHandler := &MatchHandler{DB: db, Engine: match.NewEngine(gen, log), Gen: gen, Log: log}
	convHandler := &ConversationsHandler{DB: db, Hub: hub}
	modHandler := &ModerationHandler{DB: db, Hub: hub, Log: log}

	authMW := AuthMiddleware(jwtSecret)
	optionalMW := OptionalAuthMiddleware(jwtSecret)

	// Public: registration and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Items. Listing and reads are public; the visibility policy decides
	// per viewer what each request gets to see.
	mux.Handle("GET /api/items", optionalMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/{id}", optionalMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}/status", authMW(http.HandlerFunc(itemsHandler.UpdateStatus)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("PUT /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.UploadImage)))
	mux.Handle("GET /api/items/{id}/image", optionalMW(http.HandlerFunc(itemsHandler.GetImage)))

	// Matching and image analysis.
	mux.Handle("POST /api/items/{id}/match", authMW(http.HandlerFunc(matchHandler.FindMatches)))
	mux.Handle("POST /api/analyze", authMW(http.HandlerFunc(matchHandler.AnalyzeImage)))

	// Conversations and messages.
	mux.Handle("POST /api/conversations", authMW(http.HandlerFunc(convHandler.Start)))
	mux.Handle("GET /api/conversations", authMW(http.HandlerFunc(convHandler.List)))
	mux.Handle("GET /api/conversations/{id}/messages", authMW(http.HandlerFunc(convHandler.Messages)))
	mux.Handle("POST /api/conversations/{id}/messages", authMW(http.HandlerFunc(convHandler.Send)))
	mux.Handle("GET /api/conversations/{id}/ws", authMW(http.HandlerFunc(convHandler.Stream)))
	mux.Handle("POST /api/messages/{id}/flag", authMW(http.HandlerFunc(convHandler.Flag)))

	// Moderation (admin only).
	mux.Handle("GET /api/moderation/flagged", authMW(RequireAdmin(http.HandlerFunc(modHandler.Flagged))))
	mux.Handle("POST /api/moderation/messages/{id}/resolve", authMW(RequireAdmin(http.HandlerFunc(modHandler.Resolve))))
	mux.Handle("DELETE /api/moderation/messages/{id}", authMW(RequireAdmin(http.HandlerFunc(modHandler.Delete))))
	mux.Handle("GET /api/moderation/ws", authMW(RequireAdmin(http.HandlerFunc(modHandler.Stream))))
	mux.Handle("POST /api/moderation/queue/flush", authMW(RequireAdmin(http.HandlerFunc(modHandler.FlushQueue))))

	return mux
}
