package main

import (
	"context"
	"encoding/json"
	"expvar"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/k333333v-jpg/martinez-walker-checkin/internal/bridge"
	"github.com/k333333v-jpg/martinez-walker-checkin/internal/config"
	"github.com/k333333v-jpg/martinez-walker-checkin/internal/httpapi"
	"github.com/k333333v-jpg/martinez-walker-checkin/internal/hub"
	"github.com/k333333v-jpg/martinez-walker-checkin/internal/pubsub"
	"github.com/k333333v-jpg/martinez-walker-checkin/internal/queue"
	"github.com/k333333v-jpg/martinez-walker-checkin/internal/sheets"
	boltstore "github.com/k333333v-jpg/martinez-walker-checkin/internal/store/bolt"
	"github.com/k333333v-jpg/martinez-walker-checkin/internal/telemetry"
)

type eventEnvelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func main() {
	cfg := config.Load()
	shutdownTelemetry := telemetry.Setup("checkin-service")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	slot, err := boltstore.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("open snapshot slot: %v", err)
	}
	defer slot.Close()

	qs := queue.New(queue.Options{
		TicketPrefix:         cfg.TicketPrefix,
		Preparers:            cfg.Preparers,
		WaitMinutesPerClient: cfg.WaitMinutesPerClient,
	})

	watcher := pubsub.NewSlotWatcher(slot, cfg.SlotPollInterval)
	br := bridge.New(qs, slot, watcher)
	br.Start()
	defer br.Close()

	forwarder := sheets.NewForwarder(sheets.NewRemoteLog(cfg.SheetsBaseURL), cfg.ForwardGuard)

	h := hub.New()
	handler := httpapi.NewHandler(qs, forwarder)
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", expvar.Handler())
	mux.Handle("/", handler.Routes())
	sockjsHandler := sockjs.NewHandler("/realtime", sockjs.DefaultOptions, func(session sockjs.Session) {
		client := &hub.Client{ID: uuid.NewString(), Send: make(chan []byte, 16)}
		h.Register(client)
		defer h.Unregister(client)

		go func() {
			for msg := range client.Send {
				_ = session.Send(string(msg))
			}
		}()

		for {
			msg, err := session.Recv()
			if err != nil {
				return
			}
			parsed, ok := hub.ParseSubscribe([]byte(msg))
			if !ok {
				continue
			}
			if parsed.Action == "unsubscribe" {
				h.UpdateSubscription(client, hub.Subscription{})
			} else {
				h.UpdateSubscription(client, hub.Subscription{View: parsed.View})
			}
		}
	})
	mux.Handle("/realtime/", sockjsHandler)

	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(limiter.Middleware(mux)), "checkin-service")
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	background, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()
	go watcher.Run(background)

	go func() {
		log.Printf("checkin-service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Periodic view refresh: re-reads projections and pushes them to
	// connected displays. Reads only; it never mutates queue state.
	go func() {
		if cfg.RefreshInterval <= 0 {
			return
		}
		ticker := time.NewTicker(cfg.RefreshInterval)
		defer ticker.Stop()
		var running int32
		for {
			select {
			case <-background.Done():
				return
			case <-ticker.C:
				if !atomic.CompareAndSwapInt32(&running, 0, 1) {
					continue
				}
				broadcastRefresh(h, qs)
				atomic.StoreInt32(&running, 0)
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func broadcastRefresh(h *hub.Hub, qs *queue.Store) {
	waiting := qs.Waiting()
	serving := qs.InService()
	served := qs.ServedToday()
	slots := qs.PreparerSlots()

	broadcast(h, hub.ViewWaiting, map[string]interface{}{
		"waiting": waiting,
		"serving": serving,
	})
	broadcast(h, hub.ViewStaff, map[string]interface{}{
		"waiting":   waiting,
		"served":    served,
		"preparers": slots,
	})
	broadcast(h, hub.ViewCheckIn, map[string]interface{}{
		"waiting_count": len(waiting),
	})
}

func broadcast(h *hub.Hub, view string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("refresh encode error: %v", err)
		return
	}
	env := eventEnvelope{Type: "queue_refresh", Payload: raw, CreatedAt: time.Now().UTC()}
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("refresh encode error: %v", err)
		return
	}
	h.Broadcast(data, view)
}
