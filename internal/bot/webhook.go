package bot

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
)

const (
	shutdownTimeout = 10 * time.Second
	secretHeader    = "X-Telegram-Bot-Api-Secret-Token"
)

// Serve registers the webhook with Telegram and serves updates until ctx is
// cancelled. onReady runs once the listener is up.
func (b *Bot) Serve(ctx context.Context, onReady func()) error {
	if err := b.registerWebhook(); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              b.config.ListenAddr(),
		Handler:           b.routes(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	b.log.Info().Str("addr", server.Addr).Str("path", b.config.WebhookPath()).Msg("webhook server listening")
	if onReady != nil {
		onReady()
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("webhook server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown webhook server: %w", err)
	}
	return ctx.Err()
}

// registerWebhook calls setWebhook. With a secret configured the raw
// endpoint is used, since WebhookConfig has no secret_token field.
func (b *Bot) registerWebhook() error {
	if secret := b.config.WebhookSecret; secret != "" {
		params := tgbotapi.Params{"url": b.config.WebhookURL, "secret_token": secret}
		if _, err := b.api.MakeRequest("setWebhook", params); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
	} else {
		wh, err := tgbotapi.NewWebhook(b.config.WebhookURL)
		if err != nil {
			return fmt.Errorf("build webhook: %w", err)
		}
		if _, err := b.api.Request(wh); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
	}
	b.log.Info().Str("url", b.config.WebhookURL).Msg("webhook registered")
	return nil
}

// routes wires the webhook endpoint and a liveness probe. Updates run under
// ctx, not the request context.
func (b *Bot) routes(ctx context.Context) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc(b.config.WebhookPath(), func(w http.ResponseWriter, req *http.Request) {
		if !b.authentic(req) {
			b.log.Warn().Str("remote", req.RemoteAddr).Msg("webhook secret mismatch")
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		var update tgbotapi.Update
		if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
			b.log.Warn().Err(err).Msg("decode update")
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		b.HandleUpdate(ctx, update)
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodPost)
	return r
}

func (b *Bot) authentic(req *http.Request) bool {
	secret := b.config.WebhookSecret
	if secret == "" {
		return true
	}
	got := req.Header.Get(secretHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(secret)) == 1
}
