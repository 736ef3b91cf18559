package main

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"spesebot/internal/bot"
	"spesebot/internal/cli"
	"spesebot/internal/config"
	"spesebot/internal/log"
	"spesebot/internal/services"
	"spesebot/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger, closeLog := cli.SetupLogger(config.LogSettings())
	defer closeLog()

	logger.Info("Starting Telegram bot...", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	manager := cli.InitStorage(ctx, logger, cfg)

	opts := []services.Option{
		services.WithLocation(cfg.Location()),
		services.WithLogger(logger),
	}
	publisher := cli.InitPublisher(logger, cfg)
	if publisher != nil {
		opts = append(opts, services.WithPublisher(publisher))
	}
	ledger := services.NewLedgerService(manager, opts...)
	logger.Info("Success!", log.FieldDriver, cfg.DBDriver)

	telegram := bot.NewTelegramClient(cfg.TelegramBotToken, logger)
	dispatcher := bot.NewDispatcher(ledger, telegram, cfg.AllowedChatID, cfg.ExportPath, logger)
	digest := worker.NewDigestWorker(ledger, telegram, cfg.AllowedChatID, cfg.Location(), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Supervise(gctx, logger, "telegram", bot.DefaultRestartInterval, func(ctx context.Context) error {
			return telegram.Run(ctx, dispatcher.Handle)
		})
	})
	g.Go(func() error {
		return digest.Run(gctx, cfg.DigestSchedule)
	})

	runErr := g.Wait()

	closers := map[string]func() error{"storage": manager.Close}
	if publisher != nil {
		closers["amqp"] = publisher.Close
	}
	if err := cli.CloseAll(closers); err != nil {
		logger.Error("Shutdown error", log.FieldOperation, log.OpShutdown, log.FieldError, err)
	}

	if runErr != nil {
		logger.Error("Bot stopped with error", log.FieldError, runErr)
		closeLog()
		os.Exit(1)
	}
	logger.Info("Bot stopped gracefully")
}
