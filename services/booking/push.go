package booking

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"aptusassist-backend/lib/pushstore"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// VapidConfig holds the server-side voluntary application server
// identification keys. generate a pair once with webpush.GenerateVAPIDKeys
// and keep them stable, subscriptions are bound to the public key.
type VapidConfig struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
	// a mailto: or https: url identifying the sender to push services
	Subject string `json:"subject"`
}

func (c VapidConfig) Enabled() bool {
	return c.PublicKey != "" && c.PrivateKey != ""
}

// PushSender delivers web push notifications to every browser that
// subscribed through the /api/push/subscribe endpoint.
type PushSender struct {
	store pushstore.Store
	vapid VapidConfig
}

func NewPushSender(store pushstore.Store, vapid VapidConfig) PushSender {
	return PushSender{
		store: store,
		vapid: vapid,
	}
}

func (p PushSender) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/push/subscribe", p.handleSubscribe)
	mux.HandleFunc("POST /api/push/test", p.handleTest)
}

// the shape the service worker reads back out of event.data.json()
type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// SendToAll encrypts the message against every stored subscription and posts
// it to the respective push service. a failed delivery is logged and skipped,
// one dead browser must not silence the rest. subscriptions the push service
// reports as gone are dropped from the store.
func (p PushSender) SendToAll(ctx context.Context, title, body string) error {
	ctx, span := tracer.Start(ctx, "SendToAll")
	defer span.End()

	subs, err := p.store.FindAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("subscription_count", len(subs)))

	payload, err := json.Marshal(pushPayload{Title: title, Body: body})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	for _, sub := range subs {
		res, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256dh,
				Auth:   sub.Auth,
			},
		}, &webpush.Options{
			Subscriber:      p.vapid.Subject,
			VAPIDPublicKey:  p.vapid.PublicKey,
			VAPIDPrivateKey: p.vapid.PrivateKey,
			TTL:             60,
		})
		if err != nil {
			slog.WarnContext(ctx, "failed to deliver push notification",
				"endpoint", sub.Endpoint, "err", err)
			continue
		}
		res.Body.Close()

		if res.StatusCode == http.StatusGone || res.StatusCode == http.StatusNotFound {
			// the browser unsubscribed or the subscription expired
			slog.InfoContext(ctx, "dropping expired push subscription",
				"endpoint", sub.Endpoint, "status", res.StatusCode)
			err := p.store.Delete(ctx, sub.Endpoint)
			if err != nil {
				slog.WarnContext(ctx, "failed to drop push subscription",
					"endpoint", sub.Endpoint, "err", err)
			}
		}
	}
	return nil
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (p PushSender) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleSubscribe")
	defer span.End()

	var req subscribeRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeJson(w, http.StatusBadRequest, errorView{Error: "malformed request body"})
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeJson(w, http.StatusBadRequest, errorView{Error: "endpoint and keys are required"})
		return
	}

	err = p.store.SaveIfNotExists(ctx, pushstore.Subscription{
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		writeJson(w, http.StatusInternalServerError, errorView{Error: "failed to save subscription"})
		return
	}
	writeJson(w, http.StatusOK, map[string]string{"status": "subscribed"})
}

func (p PushSender) handleTest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleTest")
	defer span.End()

	err := p.SendToAll(ctx, "Test Notification", "This is a test push message.")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		writeJson(w, http.StatusInternalServerError, errorView{Error: "failed to send test notification"})
		return
	}
	writeJson(w, http.StatusOK, map[string]string{"status": "sent"})
}
