// Command replay plays a recorded pointer script against a board, headless,
// and saves the result. The board lives either in a local store selected by
// STORAGE_TYPE or on a board API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"os"
	"time"

	"marker-mind/board"
	"marker-mind/core"
	"marker-mind/editor"
	"marker-mind/middleware"
	"marker-mind/stores"
	"marker-mind/stores/remote"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func persistence(server, token, owner string) core.Persistence {
	if server == "" {
		return stores.Scope(stores.GetStore(), owner)
	}

	if token == "" {
		if secret := os.Getenv("JWT_SECRET"); secret != "" {
			signed, err := middleware.SignJWT([]byte(secret), owner, time.Hour)
			if err != nil {
				logrus.WithError(err).Fatal("Failed to sign token")
			}
			token = signed
		}
	}
	logrus.WithField("server", server).Info("Use remote board API")
	return remote.NewClient(server, remote.WithToken(token))
}

func openScript(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}

	scriptPath := flag.String("script", "-", "Path of the event script, - for stdin.")
	boardID := flag.String("board", "", "Board to replay on; overrides the script.")
	server := flag.String("server", "", "Board API base URL; a local store is used when empty.")
	token := flag.String("token", "", "Bearer token for the board API.")
	owner := flag.String("owner", middleware.AnonymousOwner, "Owner of the board.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logrus.SetOutput(os.Stderr)

	opts, err := editor.LoadOptions()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid editor configuration")
	}

	f, err := openScript(*scriptPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open script")
	}
	script, err := ParseScript(f)
	f.Close()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to parse script")
	}

	id := script.Board
	if *boardID != "" {
		id = *boardID
	}
	if id == "" {
		id = core.NewID()
	}
	if err := core.ValidateBoardID(id); err != nil {
		logrus.WithError(err).Fatal("Invalid board id")
	}

	store := board.New(id, persistence(*server, *token, *owner), opts.BoardOptions())
	ctx, cancel := context.WithTimeout(context.Background(), opts.SaveTimeout)
	err = store.Load(ctx)
	cancel()
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		logrus.WithError(err).Fatal("Failed to load board")
	}

	ed := editor.New(store, opts)
	if err := script.Run(ed); err != nil {
		ed.Close()
		logrus.WithError(err).Fatal("Replay failed")
	}
	if err := ed.SaveOnClose(opts.SaveTimeout); err != nil {
		logrus.WithError(err).Fatal("Failed to save board")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Snapshot(ed)); err != nil {
		logrus.WithError(err).Fatal("Failed to write result")
	}
}
