package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"gitlab.com/dirk.krummacker/contact-book/internal/service"
)

// defaultPort is used when the PORT environment variable is not set.
const defaultPort = "8080"

// shutdownTimeout bounds how long in-flight requests may drain after an
// interrupt before the server is torn down.
const shutdownTimeout = 10 * time.Second

// Usage example on the command line:
// > PORT=8080 DBHOST=localhost DBUSER=dirk DBPWD=bullo92 go run main.go
func main() {
	// On dev machines a .env file can stand in for real environment variables.
	_ = godotenv.Load()
	log.SetFormatter(&log.JSONFormatter{})

	sqlDB := service.CreateDatabase()
	if err := service.EnsureSchema(sqlDB); err != nil {
		log.WithError(err).Fatal("could not create the contacts table")
	}
	service.SetupDatabaseWrapper(sqlDB)
	router := service.SetupHttpRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	server := &http.Server{Addr: ":" + port, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.WithField("port", port).Info("contact service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := group.Wait(); err != nil {
		log.WithError(err).Error("contact service failed")
	}

	// The database handle is closed only after the server has drained so
	// that in-flight statements are not severed.
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Error("closing the database failed")
	}
	log.Info("contact service stopped")
}
