// Command channels resolves the configured source channels and prints their
// metadata. Useful for checking handles and access before starting the relay.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/signalrelay/telegram-signal-relay/internal/ingest/telegram"
	"github.com/signalrelay/telegram-signal-relay/internal/platform/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := telegram.New(telegram.Options{
		APIID:       cfg.TGAPIID,
		APIHash:     cfg.TGAPIHash,
		Phone:       cfg.TGPhone,
		Password:    cfg.TG2FAPassword,
		SessionPath: cfg.TGSessionPath,
	}, logger)

	err = client.Run(ctx, func(ctx context.Context) error {
		for _, handle := range cfg.SourceChannels {
			meta, err := client.ResolveChannel(ctx, handle)
			if err != nil {
				logger.Error().Err(err).Str("channel", handle).Msg("resolve failed")

				continue
			}

			visibility := "private"
			if meta.IsPublic {
				visibility = "public"
			}

			kind := "group"
			if meta.Broadcast {
				kind = "broadcast"
			}

			fmt.Printf("%s\tid=%d\t%s\t%s\t%q\n", handle, meta.ID, visibility, kind, meta.Title)
		}

		return nil
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("channel listing failed")
	}
}
