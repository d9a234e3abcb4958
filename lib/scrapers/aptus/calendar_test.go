package aptus

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"aptusassist-backend/lib/telemetry"
	"aptusassist-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

const calendarPageHtml = `<html>
<head><title>Bokning - Aptusportal</title></head>
<body>
<div class="bookingCalendar">
	<div class="dayColumn">
		<div class="dayOfMonth">02</div>
		<div class="interval bookable"><div>10:00 - 12:00<br /></div></div>
		<div class="interval own"><div>14:00 - 16:00<br /></div></div>
		<div class="interval"><div>16:00 - 18:00<br /></div></div>
		<div class="interval"><div>Stängt för underhåll</div></div>
		<div class="interval bookable"><div>23:00 - 23:30<br /></div></div>
	</div>
	<div class="dayColumn">
		<div class="dayOfMonth">03</div>
		<div class="interval bookable"><div>18:00 - 20:00<br /></div></div>
	</div>
</div>
</body>
</html>`

func calendarServer(t *testing.T, html string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /AptusPortal/CustomerBooking/BookingCalendar", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2", r.URL.Query().Get("bookingGroupId"))
		require.NotEmpty(t, r.URL.Query().Get("passDate"))
		fmt.Fprint(w, html)
	})
	return httptest.NewServer(mux)
}

func TestFetchWeek(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/aptus")
	defer cleanup()

	srv := calendarServer(t, calendarPageHtml)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	weekStart := timezone.Date(2025, time.June, 2)

	slots, err := client.FetchWeek(context.Background(), weekStart, 2)
	require.NoError(t, err)

	// the unlabeled interval and the one ending at 23:30 (outside the
	// schedule) are dropped, everything else survives
	require.Equal(t, []Slot{
		{Date: weekStart, PassNo: 1, Status: StatusFree},
		{Date: weekStart, PassNo: 3, Status: StatusOwn},
		{Date: weekStart, PassNo: 4, Status: StatusBusy},
		{Date: weekStart.AddDate(0, 0, 1), PassNo: 5, Status: StatusFree},
	}, slots)
}

func TestFetchWeekSessionExpired(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/aptus")
	defer cleanup()

	// a login page in place of the calendar is "re-login needed", which is
	// not the same outcome as "no slots this week"
	srv := calendarServer(t, loginPageHtml)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	weekStart := timezone.Date(2025, time.June, 2)

	slots, err := client.FetchWeek(context.Background(), weekStart, 2)
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Nil(t, slots)
}

func TestFetchWeekEmptyCalendar(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/aptus")
	defer cleanup()

	srv := calendarServer(t, `<html><head><title>Bokning - Aptusportal</title></head><body></body></html>`)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	slots, err := client.FetchWeek(context.Background(), timezone.Date(2025, time.June, 2), 2)
	require.NoError(t, err)
	require.Empty(t, slots)
}

func TestScheduleLookup(t *testing.T) {
	schedule := DefaultSchedule()

	passNo, ok := schedule.PassForEnd("12:00")
	require.True(t, ok)
	require.Equal(t, 1, passNo)

	_, ok = schedule.PassForEnd("23:30")
	require.False(t, ok)

	require.Equal(t, "14:00 - 16:00", schedule.Label(3))
	require.Equal(t, "", schedule.Label(42))
}
