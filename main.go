package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foundhub/database"
	"foundhub/routes"
	"foundhub/services"
	"foundhub/services/notify"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// sweepInterval controls how often pending posts are checked for expiry.
const sweepInterval = time.Hour

func main() {
	_ = godotenv.Load()

	if os.Getenv("JWT_SECRET") == "" || os.Getenv("MONGODB_URI") == "" {
		log.Fatal("JWT_SECRET and MONGODB_URI must be set")
	}

	var dbErr error
	for i := 1; i <= 3; i++ {
		if err := database.ConnectDB(); err != nil {
			dbErr = err
			log.Printf("MongoDB connection attempt %d failed: %v", i, err)
			time.Sleep(2 * time.Second)
			continue
		}
		dbErr = nil
		break
	}
	if dbErr != nil {
		log.Fatal("Failed to connect to MongoDB: ", dbErr)
	}
	log.Println("MongoDB connected")

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	dispatcher := notify.NewDispatcher(0)
	go dispatcher.Start()
	services.SetDispatcher(dispatcher)

	router := routes.SetupRouter()

	// Periodic expiry sweep. Moving expired posts to unclaimed stays an
	// explicit admin action.
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if n, err := services.SweepExpiredPosts(ctx); err != nil {
					log.Printf("Expiry sweep failed: %v", err)
				} else if n > 0 {
					log.Printf("Expiry sweep: %d posts marked expired", n)
				}
				cancel()
			case <-sweepDone:
				return
			}
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server running on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("Forced shutdown: ", err)
	}

	close(sweepDone)
	dispatcher.Stop()

	if err := database.DisconnectDB(); err != nil {
		log.Println("MongoDB disconnect: ", err)
	}
	log.Println("Server stopped")
}
