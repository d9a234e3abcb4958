package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"aptusassist-backend/lib/scrapers/aptus"
	"aptusassist-backend/lib/slotstore"
	"aptusassist-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestHandleSlots(t *testing.T) {
	session := &fakeSession{}
	svc, cleanup := newTestService(t, session)
	defer cleanup()

	ctx := context.Background()
	monday := timezone.Date(2025, time.June, 2)

	err := svc.Store().SaveAll(ctx, []slotstore.Slot{
		{Date: monday, PassNo: 1, Status: slotstore.StatusFree},
		{Date: monday.AddDate(0, 0, 2), PassNo: 3, Status: slotstore.StatusBusy},
		// next week, must not show up
		{Date: monday.AddDate(0, 0, 7), PassNo: 1, Status: slotstore.StatusFree},
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	svc.RegisterHandlers(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/slots?passDate=2025-06-04")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var view WeekView
	err = json.NewDecoder(res.Body).Decode(&view)
	require.NoError(t, err)

	require.Equal(t, "2025-06-02", view.WeekStart)
	require.Equal(t, "2025-05-26", view.PrevWeekDate)
	require.Equal(t, "2025-06-09", view.NextWeekDate)
	require.Equal(t, []SlotView{
		{Date: "2025-06-02", DayName: "måndag", PassNo: 1, Time: "10:00 - 12:00", Status: "free"},
		{Date: "2025-06-04", DayName: "onsdag", PassNo: 3, Time: "14:00 - 16:00", Status: "busy"},
	}, view.Slots)
}

func TestHandleSlotsFreeOnly(t *testing.T) {
	session := &fakeSession{}
	svc, cleanup := newTestService(t, session)
	defer cleanup()

	ctx := context.Background()
	monday := timezone.Date(2025, time.June, 2)

	err := svc.Store().SaveAll(ctx, []slotstore.Slot{
		{Date: monday, PassNo: 1, Status: slotstore.StatusFree},
		{Date: monday, PassNo: 2, Status: slotstore.StatusBusy},
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	svc.RegisterHandlers(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/slots?passDate=2025-06-02&freeOnly=true")
	require.NoError(t, err)
	defer res.Body.Close()

	var view WeekView
	err = json.NewDecoder(res.Body).Decode(&view)
	require.NoError(t, err)
	require.Len(t, view.Slots, 1)
	require.Equal(t, "free", view.Slots[0].Status)
}

func TestHandleSlotsBadDate(t *testing.T) {
	session := &fakeSession{}
	svc, cleanup := newTestService(t, session)
	defer cleanup()

	mux := http.NewServeMux()
	svc.RegisterHandlers(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/slots?passDate=junk")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestHandleBook(t *testing.T) {
	session := &fakeSession{bookResult: true}
	svc, cleanup := newTestService(t, session)
	defer cleanup()

	mux := http.NewServeMux()
	svc.RegisterHandlers(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, err := http.Post(srv.URL+"/api/book", "application/json",
		strings.NewReader(`{"date":"2025-06-02","passNo":1}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body bookResponse
	err = json.NewDecoder(res.Body).Decode(&body)
	require.NoError(t, err)
	require.Equal(t, slotstore.StatusOwn, body.Status)
	require.Equal(t, "10:00 - 12:00", body.Time)
}

func TestHandleBookStatusCodes(t *testing.T) {
	cases := []struct {
		name    string
		session *fakeSession
		seed    []slotstore.Slot
		expect  int
	}{
		{
			name:    "auth failed",
			session: &fakeSession{loginErr: aptus.ErrLoginFailed},
			expect:  http.StatusUnauthorized,
		},
		{
			name:    "not available",
			session: &fakeSession{bookResult: true},
			seed: []slotstore.Slot{
				{Date: timezone.Date(2025, time.June, 2), PassNo: 1, Status: slotstore.StatusOwn},
			},
			expect: http.StatusBadRequest,
		},
		{
			name:    "unconfirmed",
			session: &fakeSession{bookResult: false},
			expect:  http.StatusInternalServerError,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			svc, cleanup := newTestService(t, test.session)
			defer cleanup()

			if test.seed != nil {
				err := svc.Store().SaveAll(context.Background(), test.seed)
				require.NoError(t, err)
			}

			mux := http.NewServeMux()
			svc.RegisterHandlers(mux)
			srv := httptest.NewServer(mux)
			defer srv.Close()

			res, err := http.Post(srv.URL+"/api/book", "application/json",
				strings.NewReader(`{"date":"2025-06-02","passNo":1}`))
			require.NoError(t, err)
			defer res.Body.Close()
			require.Equal(t, test.expect, res.StatusCode)
		})
	}
}

func TestHandleUnbook(t *testing.T) {
	session := &fakeSession{unbookResult: true}
	svc, cleanup := newTestService(t, session)
	defer cleanup()

	mux := http.NewServeMux()
	svc.RegisterHandlers(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, err := http.Post(srv.URL+"/api/unbook", "application/json",
		strings.NewReader(`{"bookingId":1234}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
}
