package booking

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"aptusassist-backend/lib/pushstore"
	pushdb "aptusassist-backend/lib/pushstore/db"
	"aptusassist-backend/lib/testutil"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/require"
)

func newTestPushSender(t *testing.T) (PushSender, func()) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "booking",
		DbSchema: pushdb.Schema,
	})

	private, public, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	sender := NewPushSender(pushstore.NewStore(res.DB), VapidConfig{
		PublicKey:  public,
		PrivateKey: private,
		Subject:    "mailto:laundry@example.com",
	})
	return sender, cleanup
}

// browserKeys fabricates the client half of a push subscription the way a
// browser would: an ecdh public key and a 16 byte auth secret.
func browserKeys(t *testing.T) (p256dh, auth string) {
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)

	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(secret)
}

func TestPushSubscribe(t *testing.T) {
	sender, cleanup := newTestPushSender(t)
	defer cleanup()

	mux := http.NewServeMux()
	sender.RegisterHandlers(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	body := `{
		"endpoint": "https://push.example.com/send/abc",
		"keys": {"p256dh": "BPxs1A", "auth": "c2VjcmV0"}
	}`

	// browsers re-post their subscription on every page load
	for i := 0; i < 2; i++ {
		res, err := http.Post(srv.URL+"/api/push/subscribe", "application/json",
			strings.NewReader(body))
		require.NoError(t, err)
		res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
	}

	subs, err := sender.store.FindAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, []pushstore.Subscription{
		{Endpoint: "https://push.example.com/send/abc", P256dh: "BPxs1A", Auth: "c2VjcmV0"},
	}, subs)
}

func TestPushSubscribeRejectsIncomplete(t *testing.T) {
	sender, cleanup := newTestPushSender(t)
	defer cleanup()

	mux := http.NewServeMux()
	sender.RegisterHandlers(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cases := []string{
		`not json`,
		`{"keys": {"p256dh": "BPxs1A", "auth": "c2VjcmV0"}}`,
		`{"endpoint": "https://push.example.com/send/abc"}`,
	}
	for _, body := range cases {
		res, err := http.Post(srv.URL+"/api/push/subscribe", "application/json",
			strings.NewReader(body))
		require.NoError(t, err)
		res.Body.Close()
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
	}
}

func TestPushTestEndpointDelivers(t *testing.T) {
	sender, cleanup := newTestPushSender(t)
	defer cleanup()

	delivered := make(chan *http.Request, 1)
	pushService := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered <- r
		w.WriteHeader(http.StatusCreated)
	}))
	defer pushService.Close()

	p256dh, auth := browserKeys(t)
	err := sender.store.SaveIfNotExists(context.Background(), pushstore.Subscription{
		Endpoint: pushService.URL + "/send/abc",
		P256dh:   p256dh,
		Auth:     auth,
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	sender.RegisterHandlers(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, err := http.Post(srv.URL+"/api/push/test", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	select {
	case req := <-delivered:
		require.Equal(t, http.MethodPost, req.Method)
		require.Equal(t, "aes128gcm", req.Header.Get("Content-Encoding"))
	default:
		t.Fatal("the push service never saw a delivery")
	}
}

func TestSendToAllSkipsFailedDeliveries(t *testing.T) {
	sender, cleanup := newTestPushSender(t)
	defer cleanup()

	delivered := make(chan struct{}, 1)
	pushService := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered <- struct{}{}
		w.WriteHeader(http.StatusCreated)
	}))
	defer pushService.Close()

	ctx := context.Background()
	p256dh, auth := browserKeys(t)

	// a subscription whose push service is unreachable, followed by a
	// healthy one
	err := sender.store.SaveIfNotExists(ctx, pushstore.Subscription{
		Endpoint: "http://127.0.0.1:1/send/dead",
		P256dh:   p256dh,
		Auth:     auth,
	})
	require.NoError(t, err)
	err = sender.store.SaveIfNotExists(ctx, pushstore.Subscription{
		Endpoint: pushService.URL + "/send/abc",
		P256dh:   p256dh,
		Auth:     auth,
	})
	require.NoError(t, err)

	err = sender.SendToAll(ctx, "Ledig tvättid", "Pass 1 blev ledigt")
	require.NoError(t, err)

	select {
	case <-delivered:
	default:
		t.Fatal("the healthy subscription never saw a delivery")
	}
}

func TestSendToAllDropsGoneSubscriptions(t *testing.T) {
	sender, cleanup := newTestPushSender(t)
	defer cleanup()

	pushService := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer pushService.Close()

	ctx := context.Background()
	p256dh, auth := browserKeys(t)
	err := sender.store.SaveIfNotExists(ctx, pushstore.Subscription{
		Endpoint: pushService.URL + "/send/abc",
		P256dh:   p256dh,
		Auth:     auth,
	})
	require.NoError(t, err)

	err = sender.SendToAll(ctx, "Ledig tvättid", "Pass 1 blev ledigt")
	require.NoError(t, err)

	subs, err := sender.store.FindAll(ctx)
	require.NoError(t, err)
	require.Empty(t, subs)
}
