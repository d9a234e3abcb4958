package booking

import (
	"context"
	"log/slog"
	"time"
	"aptusassist-backend/lib/scrapers/aptus"
	"aptusassist-backend/lib/slotstore"
	"aptusassist-backend/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type slotKey struct {
	Date   string
	PassNo int
}

// freedSlots returns the scraped slots that went from a known taken status to
// free. slots never seen before do not count: the first cycle after a restart
// would otherwise notify about every open pass on the calendar.
func freedSlots(previous map[slotKey]string, scraped []slotstore.Slot) []slotstore.Slot {
	var freed []slotstore.Slot
	for _, slot := range scraped {
		if slot.Status != slotstore.StatusFree {
			continue
		}
		before, known := previous[slotKey{
			Date:   slot.Date.Format(slotstore.DateFormat),
			PassNo: slot.PassNo,
		}]
		if known && before != slotstore.StatusFree {
			freed = append(freed, slot)
		}
	}
	return freed
}

func storeSlots(scraped []aptus.Slot) []slotstore.Slot {
	slots := make([]slotstore.Slot, len(scraped))
	for i, slot := range scraped {
		slots[i] = slotstore.Slot{
			Date:   slot.Date,
			PassNo: slot.PassNo,
			Status: string(slot.Status),
		}
	}
	return slots
}

// RunCycle performs one full sync: log in, scrape the configured number of
// weeks, notify about passes that freed up and persist the new statuses. a
// week that fails to scrape is skipped, the remaining weeks still go through.
func (s Service) RunCycle(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RunCycle")
	defer span.End()

	session, err := s.login(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sync cycle could not log in")
		return err
	}

	stored, err := s.store.FindAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	previous := make(map[slotKey]string, len(stored))
	for _, slot := range stored {
		previous[slotKey{
			Date:   slot.Date.Format(slotstore.DateFormat),
			PassNo: slot.PassNo,
		}] = slot.Status
	}

	weekStart := timezone.MostRecentMonday(timezone.Now())

	var scraped []slotstore.Slot
	for week := 0; week < s.weeksAhead; week++ {
		start := weekStart.AddDate(0, 0, week*7)
		slots, err := session.FetchWeek(ctx, start, s.portal.BookingGroupId)
		if err != nil {
			slog.WarnContext(ctx, "failed to scrape week",
				"week_start", start.Format(slotstore.DateFormat), "err", err)
			continue
		}
		scraped = append(scraped, storeSlots(slots)...)
	}
	span.SetAttributes(attribute.Int("scraped_count", len(scraped)))

	freed := freedSlots(previous, scraped)
	span.SetAttributes(attribute.Int("freed_count", len(freed)))
	if s.notifier != nil {
		for _, slot := range freed {
			s.notifier.SlotFreed(ctx, slot, s.schedule.Label(slot.PassNo))
		}
	}

	err = s.store.SaveAll(ctx, scraped)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist scraped slots")
		return err
	}

	// past weeks are never scraped again, their rows just pile up
	err = s.store.Prune(ctx, weekStart)
	if err != nil {
		slog.WarnContext(ctx, "failed to prune past slots", "err", err)
	}
	return nil
}

// SyncDaemon runs sync cycles on the given interval until ctx is cancelled.
// cycles never overlap, a slow scrape simply delays the next tick.
func (s Service) SyncDaemon(ctx context.Context, interval time.Duration) {
	err := s.RunCycle(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "sync cycle", "err", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := s.RunCycle(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "sync cycle", "err", err)
			}
		}
	}
}
