package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/skillswap/skillswap/internal/config"
	"github.com/skillswap/skillswap/internal/database"
	postgresrepo "github.com/skillswap/skillswap/internal/repository/postgres"
	"github.com/skillswap/skillswap/internal/service"
	"github.com/skillswap/skillswap/internal/transport/http/handlers"
	"github.com/skillswap/skillswap/internal/transport/http/middleware"
	"github.com/skillswap/skillswap/internal/transport/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)

	// Services
	chatService := service.NewChatService(messageRepo, userRepo)

	// Real-time: hub holds live connections, the notifier bridges the
	// chat service to them, the router dispatches inbound events.
	hub := ws.NewHub()
	chatService.SetNotifier(ws.NewHubNotifier(hub))
	router := ws.NewRouter(chatService, hub)

	// Handlers
	messageHandler := handlers.NewMessageHandler(chatService)
	userHandler := handlers.NewUserHandler(chatService)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})

	// Live channel (token via query param)
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, router, userRepo, cfg.JWTSecret))

	// Protected - Messages
	mux.Handle("GET /api/v1/messages", auth(http.HandlerFunc(messageHandler.List)))
	mux.Handle("GET /api/v1/messages/conversation", auth(http.HandlerFunc(messageHandler.Conversation)))
	mux.Handle("GET /api/v1/messages/unread", auth(http.HandlerFunc(messageHandler.Unread)))
	mux.Handle("GET /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Get)))
	mux.Handle("PUT /api/v1/messages/read", auth(http.HandlerFunc(messageHandler.MarkReadBulk)))
	mux.Handle("PUT /api/v1/messages/{id}/read", auth(http.HandlerFunc(messageHandler.MarkRead)))
	mux.Handle("DELETE /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Delete)))

	// Protected - Users
	mux.Handle("GET /api/v1/users/{id}", auth(http.HandlerFunc(userHandler.Get)))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, middleware.CORS(cfg.CORSOrigin)(mux)))
}
