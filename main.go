// File: main.go
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/websocket"

	"github.com/Talkashi1111/ft-transcendence-sub000/actor"
	"github.com/Talkashi1111/ft-transcendence-sub000/config"
	"github.com/Talkashi1111/ft-transcendence-sub000/endpoint"
	"github.com/Talkashi1111/ft-transcendence-sub000/httpapi"
	"github.com/Talkashi1111/ft-transcendence-sub000/identity"
	"github.com/Talkashi1111/ft-transcendence-sub000/manager"
	"github.com/Talkashi1111/ft-transcendence-sub000/recorder"
)

const defaultPort = "8080"
const wsPath = "/match/stream"

func main() {
	cfg := config.Default()
	fmt.Println("Configuration loaded (using defaults).")
	fmt.Printf("Field: %vx%v, Tick Period: %v, Max Score: %d\n", cfg.FieldWidth, cfg.FieldHeight, cfg.TickRate, cfg.MaxScore)

	engine := actor.NewEngine()
	fmt.Println("Actor engine created.")

	rec := recorder.NewLoggingRecorder()

	managerPID := engine.Spawn(&actor.Props{Produce: manager.NewProducer(cfg, rec)})
	if managerPID == nil {
		panic("Failed to spawn Match Manager actor")
	}
	fmt.Printf("Match Manager spawned with PID: %s\n", managerPID)

	// Allow the manager actor's mailbox loop to start before traffic arrives.
	time.Sleep(50 * time.Millisecond)

	secret := os.Getenv("IDENTITY_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
		fmt.Println("IDENTITY_SECRET not set, using an insecure development default.")
	}
	issuer := os.Getenv("IDENTITY_ISSUER")
	verifier := identity.NewJWTVerifier(secret, issuer)

	wsServer := endpoint.NewServer(engine, managerPID, verifier, cfg)
	api := httpapi.NewAPI(engine, managerPID, verifier, cfg, wsPath)

	mux := http.NewServeMux()
	mux.Handle("/", api.Mux())
	mux.HandleFunc("/health-check/", healthCheck)
	mux.Handle(wsPath, websocket.Handler(wsServer.Handler()))

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
		fmt.Printf("PORT environment variable not set, defaulting to %s\n", port)
	}

	listenAddr := ":" + port
	fmt.Printf("Server starting on address %s\n", listenAddr)
	err := http.ListenAndServe(listenAddr, mux)
	if err != nil {
		fmt.Println("Server stopped:", err)
		fmt.Println("Shutting down engine...")
		engine.Shutdown(5 * time.Second)
		fmt.Println("Engine shutdown complete.")
	}
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status": "ok"}`))
}
