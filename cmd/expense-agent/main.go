package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/petasbytes/expense-agent/internal/config"
	"github.com/petasbytes/expense-agent/internal/ledger"
	"github.com/petasbytes/expense-agent/internal/provider"
	"github.com/petasbytes/expense-agent/internal/runner"
	"github.com/petasbytes/expense-agent/internal/telegram"
	"github.com/petasbytes/expense-agent/memory"
	"github.com/petasbytes/expense-agent/tools"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	repl := flag.Bool("repl", false, "chat on stdin instead of serving the Telegram webhook")
	flag.Parse()

	if err := run(*configPath, *repl); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, repl bool) error {
	cfg := config.Default()
	if path, err := config.FindConfig(configPath); err == nil {
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
	} else if configPath != "" {
		return err
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	store, err := ledger.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}
	defer store.Close()

	client := provider.NewClient(cfg.Anthropic.APIKey)
	loop := runner.NewLoop(client, provider.Model(cfg.Anthropic.Model), tools.Registry(store), memory.NewMapStore(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigch)
	go func() {
		<-sigch
		cancel()
	}()

	if repl {
		return runREPL(ctx, loop)
	}
	return serve(ctx, cfg, loop, logger)
}

// runREPL chats on stdin, one conversation for the whole session.
func runREPL(ctx context.Context, loop *runner.Loop) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Catat pengeluaranmu (Ctrl-C untuk keluar)")

	inputCh := make(chan string)
	go func() {
		for scanner.Scan() {
			inputCh <- scanner.Text()
		}
		close(inputCh)
	}()

	for {
		fmt.Print("\u001b[94mKamu\u001b[0m: ")
		var (
			user string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Println("\nSampai jumpa.")
			return nil
		case user, ok = <-inputCh:
			if !ok {
				return scanner.Err()
			}
		}
		if user == "" {
			continue
		}

		out, err := loop.RunTurn(ctx, "repl", runner.Input{Text: user})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Printf("\u001b[93mAgen\u001b[0m: %s\n", out)
	}
}

// serve runs the Telegram webhook server until the context is cancelled.
func serve(ctx context.Context, cfg *config.Config, loop *runner.Loop, logger *slog.Logger) error {
	if cfg.Telegram.Token == "" {
		return errors.New("telegram.token is required in webhook mode")
	}

	bot := telegram.NewClient(cfg.Telegram.Token, logger)
	if cfg.Telegram.WebhookURL != "" {
		if err := bot.SetWebhook(ctx, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			return fmt.Errorf("register webhook: %w", err)
		}
		logger.Info("webhook registered", "url", cfg.Telegram.WebhookURL)
	}

	mux := http.NewServeMux()
	mux.Handle("/webhook", telegram.NewWebhook(bot, loop, cfg.Telegram.WebhookSecret, logger))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := net.JoinHostPort(cfg.Listen.Address, strconv.Itoa(cfg.Listen.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
