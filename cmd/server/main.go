package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	fakeclientrepo "github.com/jrsteele09/go-auth-session/clients/fakerepo"
	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/server"
	refreshrepofake "github.com/jrsteele09/go-auth-session/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/go-auth-session/users/repofake"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load environment")
	}

	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c.GetEnv())
	displayAppname(c.GetAppName())

	// In-memory stores: the provider is meant for local development and tests
	repos := server.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		Clients:       fakeclientrepo.NewFakeClientRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	}

	s, err := server.New(c, repos)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	if err := s.InitialiseSystem(c); err != nil {
		return fmt.Errorf("server.InitialiseSystem: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: s}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(httpServer) }()

	if err := waitForStopSignal(errs); err != nil {
		return err
	}
	returnError = shutdown(httpServer)
	return returnError
}

func setupLogging(env string) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if env == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

// waitForStopSignal blocks until the process is asked to stop or the
// listener fails.
func waitForStopSignal(errs <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
		return nil
	case err := <-errs:
		return err
	}
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
