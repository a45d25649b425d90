package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"trinity_server/middleware"
	"trinity_server/routes"
	"trinity_server/services"
	"trinity_server/socket"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	// Initialize the realtime connection registry first; the socket server
	// and the notifier both hang off it.
	notifier := &services.NotificationService{}
	connectionService := &services.ConnectionService{Dynamo: dynamoService, Notifier: notifier}

	socketServer := socket.NewSocketServer(connectionService)
	notifier.Publisher = &socket.Broadcaster{Server: socketServer}

	// Initialize Services
	poolService := &services.ContentPoolService{Catalog: services.NewTMDBService()}
	roomService := &services.RoomService{
		Dynamo:        dynamoService,
		Pool:          poolService,
		Notifier:      notifier,
		InviteBaseURL: envOr("INVITE_BASE_URL", "https://trinity.app"),
		PoolSize:      envIntOr("CONTENT_POOL_SIZE", 30),
	}
	voteService := &services.VoteService{Dynamo: dynamoService, Notifier: notifier}

	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Fatalf("Socket server error: %v", err)
		}
	}()
	defer socketServer.Close()

	// Set up the server port
	port := envOr("PORT", "8080")
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to Trinity")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Realtime transport
	r.Handle("/socket.io/", socketServer)

	// Register routes
	routes.RegisterRoomRoutes(r, roomService)
	routes.RegisterVoteRoutes(r, voteService)
	routes.RegisterConnectionRoutes(r, connectionService)
	routes.RegisterCategoryRoutes(r, poolService)

	// Rate limit the API per user
	limiter := middleware.NewRateLimiter(envIntOr("RATE_LIMIT_PER_MINUTE", 30))
	handler := limiter.Middleware(r)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-User-Id"},
		AllowCredentials: true,
	}).Handler(handler)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
