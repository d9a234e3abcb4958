package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"aptusassist-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:telegram")
	defer cleanup()

	var got sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sendMessage", r.URL.Path)
		err := json.NewDecoder(r.Body).Decode(&got)
		require.NoError(t, err)
		fmt.Fprint(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	client := newClient(srv.URL)
	err := client.SendMessage(context.Background(), 42, "Tvättstugan 14:00 - 16:00 är ledig", [][]Button{
		{{Text: "Boka", CallbackData: "book_2025-06-02_3"}},
	})
	require.NoError(t, err)

	require.Equal(t, int64(42), got.ChatId)
	require.NotNil(t, got.ReplyMarkup)
	require.Equal(t, "book_2025-06-02_3", got.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
}

func TestSendMessageWithoutKeyboard(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:telegram")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		err := json.NewDecoder(r.Body).Decode(&body)
		require.NoError(t, err)
		// no keyboard means no reply_markup key at all
		require.NotContains(t, body, "reply_markup")
		fmt.Fprint(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	client := newClient(srv.URL)
	err := client.SendMessage(context.Background(), 42, "hej", nil)
	require.NoError(t, err)
}

func TestApiError(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:telegram")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"ok":false,"description":"Bad Request: chat not found"}`)
	}))
	defer srv.Close()

	client := newClient(srv.URL)
	err := client.SendMessage(context.Background(), 42, "hej", nil)

	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "sendMessage", apiErr.Method)
	require.Contains(t, apiErr.Description, "chat not found")
}

func TestGetUpdates(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:telegram")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/getUpdates", r.URL.Path)

		var req getUpdatesRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)
		require.Equal(t, int64(7), req.Offset)

		fmt.Fprint(w, `{"ok":true,"result":[
			{"update_id":7,"message":{"message_id":1,"chat":{"id":42},"text":"/start"}},
			{"update_id":8,"callback_query":{"id":"cq1","data":"book_2025-06-02_3","message":{"message_id":2,"chat":{"id":42}}}}
		]}`)
	}))
	defer srv.Close()

	client := newClient(srv.URL)
	updates, err := client.GetUpdates(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, updates, 2)

	require.NotNil(t, updates[0].Message)
	require.Equal(t, "/start", updates[0].Message.Text)
	require.Equal(t, int64(42), updates[0].Message.Chat.Id)

	require.NotNil(t, updates[1].CallbackQuery)
	require.Equal(t, "book_2025-06-02_3", updates[1].CallbackQuery.Data)
}

func TestPollDispatchesAndAdvancesOffset(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:telegram")
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req getUpdatesRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)

		switch calls {
		case 1:
			require.Equal(t, int64(0), req.Offset)
			fmt.Fprint(w, `{"ok":true,"result":[{"update_id":3,"message":{"message_id":1,"chat":{"id":42},"text":"/test"}}]}`)
		default:
			// the second poll must ask past the delivered update
			require.Equal(t, int64(4), req.Offset)
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
			cancel()
		}
	}))
	defer srv.Close()

	client := newClient(srv.URL)

	var handled []Update
	client.Poll(ctx, func(ctx context.Context, update Update) {
		handled = append(handled, update)
	})

	// cancellation may land after the second empty poll, which delivers no
	// updates, so exactly one handled update either way
	require.Len(t, handled, 1)
	require.Equal(t, int64(3), handled[0].UpdateId)
}
