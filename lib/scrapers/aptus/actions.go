package aptus

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// the portal confirms actions through a FeedbackDialog widget carrying a
	// localized phrase. these fragments are load-bearing for interop.
	feedbackDialogMarker = "FeedbackDialog"
	bookedPhrase         = "är bokat"
	cancelledPhrase      = "Ditt pass har blivit avbokat"
)

// Book requests a booking for the pass on the given date. the returned bool
// reports whether the portal confirmed the booking, via the feedback dialog
// or, failing that, via the target interval now carrying the "own" class in
// the returned calendar. an expired session surfaces as ErrSessionExpired so
// callers can distinguish "re-login and retry" from "slot unavailable".
func (c *Client) Book(ctx context.Context, date time.Time, passNo int, bookingGroupId int) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:Book")
	defer span.End()
	span.SetAttributes(
		attribute.String("date", date.Format(DateFormat)),
		attribute.Int("pass_no", passNo),
		attribute.Int("booking_group_id", bookingGroupId),
	)

	bookUrl := fmt.Sprintf(
		"%s/AptusPortal/CustomerBooking/Book?passNo=%d&passDate=%s&bookingGroupId=%d",
		c.BaseUrl, passNo, date.Format(DateFormat), bookingGroupId,
	)
	res, err := c.followRedirects(ctx, bookUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "booking request failed")
		return false, err
	}

	body := res.String()
	if strings.Contains(body, loginPageMarker) {
		span.SetStatus(codes.Error, ErrSessionExpired.Error())
		return false, ErrSessionExpired
	}

	if strings.Contains(body, feedbackDialogMarker) && strings.Contains(body, bookedPhrase) {
		return true, nil
	}

	// the confirmation dialog is not always present; the returned calendar
	// marking the interval as ours is just as authoritative
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse booking response")
		return false, err
	}
	if c.intervalIsOwn(doc, date, passNo) {
		return true, nil
	}

	span.SetStatus(codes.Error, "portal did not confirm the booking")
	return false, nil
}

// Unbook cancels an existing booking by its portal-side id.
func (c *Client) Unbook(ctx context.Context, bookingId int) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:Unbook")
	defer span.End()
	span.SetAttributes(attribute.Int("booking_id", bookingId))

	unbookUrl := fmt.Sprintf("%s/AptusPortal/CustomerBooking/Unbook/%d", c.BaseUrl, bookingId)
	res, err := c.followRedirects(ctx, unbookUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unbooking request failed")
		return false, err
	}

	body := res.String()
	if strings.Contains(body, loginPageMarker) {
		span.SetStatus(codes.Error, ErrSessionExpired.Error())
		return false, ErrSessionExpired
	}

	if strings.Contains(body, feedbackDialogMarker) && strings.Contains(body, cancelledPhrase) {
		return true, nil
	}

	span.SetStatus(codes.Error, "portal did not confirm the cancellation")
	return false, nil
}

func (c *Client) intervalIsOwn(doc *goquery.Document, date time.Time, passNo int) bool {
	label := c.schedule.Label(passNo)
	if label == "" {
		return false
	}
	dayOfMonth := date.Format("02")

	found := false
	doc.Find("div.dayColumn").Each(func(_ int, col *goquery.Selection) {
		if strings.TrimSpace(col.Find("div.dayOfMonth").Text()) != dayOfMonth {
			return
		}
		col.Find("div.interval.own").Each(func(_ int, interval *goquery.Selection) {
			if strings.Contains(interval.Text(), label) {
				found = true
			}
		})
	})
	return found
}
