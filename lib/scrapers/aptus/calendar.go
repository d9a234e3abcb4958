package aptus

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"aptusassist-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DateFormat = "2006-01-02"

type Status string

const (
	StatusFree Status = "free"
	StatusOwn  Status = "own"
	StatusBusy Status = "busy"
)

type Slot struct {
	Date   time.Time
	PassNo int
	Status Status
}

var intervalTimeRegex = regexp.MustCompile(`(\d{2}:\d{2}) - (\d{2}:\d{2})`)

// FetchWeek scrapes the booking calendar for the week beginning at weekStart.
// day columns come back in chronological order starting at weekStart, one
// interval per pass. intervals without a recognizable time label or outside
// the schedule are skipped individually, a single bad interval never aborts
// the scrape. a login page in place of the calendar yields ErrSessionExpired.
func (c *Client) FetchWeek(ctx context.Context, weekStart time.Time, bookingGroupId int) ([]Slot, error) {
	ctx, span := tracer.Start(ctx, "client:FetchWeek")
	defer span.End()
	span.SetAttributes(
		attribute.String("week_start", weekStart.Format(DateFormat)),
		attribute.Int("booking_group_id", bookingGroupId),
	)

	calendarUrl := fmt.Sprintf(
		"%s/AptusPortal/CustomerBooking/BookingCalendar?bookingGroupId=%d&passDate=%s",
		c.BaseUrl, bookingGroupId, weekStart.Format(DateFormat),
	)
	res, err := c.followRedirects(ctx, calendarUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch booking calendar")
		return nil, err
	}

	if strings.Contains(res.String(), loginPageMarker) {
		span.SetStatus(codes.Error, ErrSessionExpired.Error())
		return nil, ErrSessionExpired
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse booking calendar")
		return nil, err
	}

	var slots []Slot
	doc.Find("div.dayColumn").Each(func(dayIndex int, col *goquery.Selection) {
		date := weekStart.AddDate(0, 0, dayIndex)

		col.Find("div.interval").Each(func(intervalIndex int, interval *goquery.Selection) {
			_, end, ok := intervalTimes(interval)
			if !ok {
				slog.WarnContext(ctx, "skipping interval without a time label",
					"date", date.Format(DateFormat), "index", intervalIndex)
				return
			}

			passNo, ok := c.schedule.PassForEnd(end)
			if !ok {
				slog.WarnContext(ctx, "no pass in the schedule ends at this time",
					"date", date.Format(DateFormat), "end", end)
				return
			}

			status := StatusBusy
			if interval.HasClass("bookable") {
				status = StatusFree
			} else if interval.HasClass("own") {
				status = StatusOwn
			}

			slots = append(slots, Slot{
				Date:   date,
				PassNo: passNo,
				Status: status,
			})
		})
	})

	span.SetAttributes(attribute.Int("slot_count", len(slots)))
	return slots, nil
}

// the time label lives in one of the interval's child divs,
// e.g. <div>14:00 - 16:00<br/></div>
func intervalTimes(interval *goquery.Selection) (start, end string, ok bool) {
	for _, node := range interval.Find("div").Nodes {
		text := htmlutil.GetText(node)
		groups := intervalTimeRegex.FindStringSubmatch(text)
		if len(groups) == 3 {
			return groups[1], groups[2], true
		}
	}
	return "", "", false
}
