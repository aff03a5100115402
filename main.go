package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roomsync/roomsync-client/config"
	"github.com/roomsync/roomsync-client/internal/app"
	"github.com/roomsync/roomsync-client/logger"
	"github.com/roomsync/roomsync-client/types"
)

func main() {
	// Initialize logger
	logger.InitLogger()
	log := logger.GetLogger()
	defer logger.Close()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize sync client: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Errorw("Failed to close sync client", "error", err)
		}
	}()

	sess := a.Start(ctx)
	if !sess.IsAuthenticated {
		email, password := os.Getenv("ROOMSYNC_EMAIL"), os.Getenv("ROOMSYNC_PASSWORD")
		if email == "" || password == "" {
			log.Errorw("No persisted session; set ROOMSYNC_EMAIL and ROOMSYNC_PASSWORD to sign in")
			return
		}
		if _, err := a.Login(ctx, types.LoginRequest{Email: email, Password: password}); err != nil {
			log.Errorw("Login failed", "email", logger.MaskEmail(email), "error", err)
			return
		}
		sess = a.Store.Session()
	}
	if sess.User != nil {
		log.Infow("Signed in",
			"userID", sess.User.ID,
			"email", logger.MaskEmail(sess.User.Email),
			"token", logger.MaskJWT(sess.Token))
	}

	syncCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = a.Sync(syncCtx)
	cancel()
	if err != nil {
		log.Warnw("Initial sync incomplete", "error", err)
	}
	log.Infow("Initial sync finished",
		"groups", len(a.Store.MyGroups()),
		"unread", a.Store.UnreadCount())

	<-ctx.Done()
	log.Info("Shutting down sync client")
}
