package main

import (
    "context"
    "errors"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/sirupsen/logrus"

    "github.com/KAYner2/Theame-sub000/internal/api"
    "github.com/KAYner2/Theame-sub000/internal/auth"
    "github.com/KAYner2/Theame-sub000/internal/config"
    "github.com/KAYner2/Theame-sub000/internal/idempotency"
    "github.com/KAYner2/Theame-sub000/internal/logger"
    "github.com/KAYner2/Theame-sub000/internal/media"
    "github.com/KAYner2/Theame-sub000/internal/metrics"
    "github.com/KAYner2/Theame-sub000/internal/notify"
    "github.com/KAYner2/Theame-sub000/internal/payment"
    "github.com/KAYner2/Theame-sub000/internal/store"
)

func main() {
    cfg, err := config.Load()
    if err != nil {
        logrus.Fatalf("config: %v", err)
    }
    log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
    metrics.RegisterDefault()

    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    st, closeStore := openStore(cfg, log)
    defer closeStore()

    var (
        claims idempotency.Store
        broker api.EventBroker
    )
    if cfg.RedisURL != "" {
        rc, err := idempotency.NewRedisFromURL(ctx, cfg.RedisURL)
        if err != nil {
            // Falling back to memory would let two instances both claim the same event.
            log.Fatalf("redis: %v", err)
        }
        defer rc.Close()
        claims = rc
        broker = api.NewRedisBroker(rc.Client(), log)
    } else {
        claims = idempotency.NewMemory()
        broker = api.NewBroker()
        log.Warn("REDIS_URL not set: idempotency is local to this instance")
    }

    var channels []notify.Channel
    if tg := cfg.Telegram; tg.BotToken != "" {
        if ids := config.SplitList(tg.ChatIDs); len(ids) > 0 {
            channels = append(channels, notify.NewTelegram(notify.TelegramOptions{
                Token:    tg.BotToken,
                BaseURL:  tg.APIBase,
                ChatIDs:  ids,
                ThreadID: tg.ThreadID(),
                Timeout:  cfg.NotifyTimeout,
                RPS:      cfg.NotifyRPS,
            }))
        }
    }
    if wa := cfg.WhatsApp; wa.Token != "" && wa.PhoneID != "" {
        if to := config.SplitList(wa.Recipients); len(to) > 0 {
            channels = append(channels, notify.NewWhatsApp(notify.WhatsAppOptions{
                Token:      wa.Token,
                PhoneID:    wa.PhoneID,
                BaseURL:    wa.APIBase,
                Recipients: to,
                Timeout:    cfg.NotifyTimeout,
                RPS:        cfg.NotifyRPS,
            }))
        }
    }
    if len(channels) == 0 {
        log.Warn("no notification recipients configured")
    }
    dispatcher := notify.NewDispatcher(log.WithField("component", "notify"), cfg.NotifyTimeout, st, channels...)

    var payments *payment.Client
    if p := cfg.Payment; p.TerminalKey != "" && p.Password != "" {
        payments = payment.NewClient(p.TerminalKey, p.Password, p.APIBase)
        payments.SuccessURL = p.SuccessURL
        payments.FailURL = p.FailURL
        payments.NotificationURL = p.NotificationURL
    }

    var storage media.Storage = media.NewMemory("/media")
    if cfg.S3.Bucket != "" {
        s3, err := media.NewS3(ctx, media.S3Options{
            Bucket:        cfg.S3.Bucket,
            Region:        cfg.S3.Region,
            Endpoint:      cfg.S3.Endpoint,
            PublicBaseURL: cfg.S3.PublicBaseURL,
            AccessKey:     cfg.S3.AccessKey,
            SecretKey:     cfg.S3.SecretKey,
        })
        if err != nil {
            log.Fatalf("s3: %v", err)
        }
        storage = s3
    }

    if cfg.WebhookSecret == "" {
        log.Warn("WEBHOOK_SECRET not set: every order webhook will be rejected")
    }
    if cfg.AdminTokenSecret == "" {
        log.Warn("ADMIN_TOKEN_SECRET not set: admin login is disabled")
    }

    srv := api.NewServer(api.Server{
        Store:          st,
        Claims:         claims,
        Notifier:       dispatcher,
        Broker:         broker,
        Auth:           auth.NewIssuer(cfg.AdminTokenSecret, cfg.AdminTokenTTL),
        Payments:       payments,
        Media:          storage,
        Log:            log,
        WebhookSecret:  cfg.WebhookSecret,
        IdempotencyTTL: cfg.IdempotencyTTL(),
    })

    mux := srv.Routes()
    mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

    httpSrv := &http.Server{
        Addr:              ":" + cfg.Port,
        Handler:           api.Instrument(mux, log),
        ReadHeaderTimeout: 5 * time.Second,
    }

    go func() {
        log.WithFields(logrus.Fields{
            "addr":        httpSrv.Addr,
            "idempotency": claims.Strategy(),
            "recipients":  dispatcher.Recipients(),
        }).Info("API listening")
        if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatalf("server error: %v", err)
        }
    }()

    quit := make(chan os.Signal, 1)
    signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
    <-quit
    log.Info("shutting down")

    shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
    defer stop()
    if err := httpSrv.Shutdown(shutdownCtx); err != nil {
        log.Errorf("shutdown: %v", err)
    }
}

// openStore picks Postgres when DATABASE_URL is set and the in-memory store otherwise.
func openStore(cfg *config.Config, log logrus.FieldLogger) (store.Store, func()) {
    if cfg.DatabaseURL == "" {
        mem := store.NewMemory()
        mem.SetAdminPasswordHash(cfg.AdminPasswordHash)
        log.Warn("DATABASE_URL not set: using in-memory store")
        return mem, func() {}
    }
    pg, err := store.NewPostgres(cfg.DatabaseURL)
    if err != nil {
        log.Fatalf("postgres: %v", err)
    }
    return pg, func() { _ = pg.Close() }
}
