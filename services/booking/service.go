// Package booking ties the portal scraper, the slot store and the notifier
// together: it keeps the store in sync with the portal, tells users when a
// pass frees up and books passes on their behalf.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"
	"aptusassist-backend/lib/scrapers/aptus"
	"aptusassist-backend/lib/slotstore"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/booking")

var (
	ErrAuthFailed   = errors.New("portal authentication failed")
	ErrNotAvailable = errors.New("the pass is not available for booking")
	ErrNotConfirmed = errors.New("the portal did not confirm the booking")
)

const (
	loginAttempts   = 3
	loginRetryPause = time.Second
)

// Session is the slice of the portal client the service depends on. every
// session carries its own cookie state and must not be shared.
type Session interface {
	Login(ctx context.Context, username, password string) error
	FetchWeek(ctx context.Context, weekStart time.Time, bookingGroupId int) ([]aptus.Slot, error)
	Book(ctx context.Context, date time.Time, passNo int, bookingGroupId int) (bool, error)
	Unbook(ctx context.Context, bookingId int) (bool, error)
}

type SessionFactory func(ctx context.Context) (Session, error)

type PortalConfig struct {
	BaseUrl        string `json:"baseUrl"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	BookingGroupId int    `json:"bookingGroupId"`
}

// Notifier is told about passes that went from taken to free since the last
// sync cycle.
type Notifier interface {
	SlotFreed(ctx context.Context, slot slotstore.Slot, label string)
}

type Options struct {
	Portal PortalConfig
	Store  slotstore.Store
	// defaults to aptus.DefaultSchedule when nil
	Schedule aptus.Schedule
	// how many weeks ahead each sync cycle scrapes, defaults to 2
	WeeksAhead int
	// optional, nil disables freed-pass notifications
	Notifier Notifier
	// optional, defaults to a factory dialing Portal.BaseUrl
	NewSession SessionFactory
}

type Service struct {
	portal     PortalConfig
	store      slotstore.Store
	schedule   aptus.Schedule
	weeksAhead int
	notifier   Notifier
	newSession SessionFactory
}

func NewService(opts Options) Service {
	schedule := opts.Schedule
	if schedule == nil {
		schedule = aptus.DefaultSchedule()
	}
	weeksAhead := opts.WeeksAhead
	if weeksAhead <= 0 {
		weeksAhead = 2
	}
	newSession := opts.NewSession
	if newSession == nil {
		newSession = func(ctx context.Context) (Session, error) {
			return aptus.NewClient(ctx, aptus.ClientOptions{
				BaseUrl:  opts.Portal.BaseUrl,
				Schedule: schedule,
			})
		}
	}
	return Service{
		portal:     opts.Portal,
		store:      opts.Store,
		schedule:   schedule,
		weeksAhead: weeksAhead,
		notifier:   opts.Notifier,
		newSession: newSession,
	}
}

func (s Service) Schedule() aptus.Schedule {
	return s.schedule
}

func (s Service) Store() slotstore.Store {
	return s.store
}

// login opens a fresh session and authenticates, retrying transient failures.
// bad credentials surface as ErrAuthFailed immediately, more attempts will
// not help.
func (s Service) login(ctx context.Context) (Session, error) {
	ctx, span := tracer.Start(ctx, "login")
	defer span.End()

	session, err := s.newSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		err = session.Login(ctx, s.portal.Username, s.portal.Password)
		if err == nil {
			return session, nil
		}
		if errors.Is(err, aptus.ErrLoginFailed) {
			span.SetStatus(codes.Error, ErrAuthFailed.Error())
			return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
		}
		if attempt >= loginAttempts {
			break
		}
		select {
		case <-time.After(loginRetryPause):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "login attempts exhausted")
	return nil, err
}

// Book books the pass on behalf of the configured account. it refuses up
// front when the store already knows the pass is taken, so a stale
// notification does not turn into a pointless portal roundtrip.
func (s Service) Book(ctx context.Context, date time.Time, passNo int) error {
	ctx, span := tracer.Start(ctx, "Book")
	defer span.End()
	span.SetAttributes(
		attribute.String("date", date.Format(slotstore.DateFormat)),
		attribute.Int("pass_no", passNo),
	)

	stored, found, err := s.store.FindByKey(ctx, date, passNo)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if found && stored.Status != slotstore.StatusFree {
		err := fmt.Errorf("%w: last known status is %q", ErrNotAvailable, stored.Status)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	session, err := s.login(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	confirmed, err := session.Book(ctx, date, passNo, s.portal.BookingGroupId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if !confirmed {
		span.SetStatus(codes.Error, ErrNotConfirmed.Error())
		return ErrNotConfirmed
	}

	err = s.store.UpdateStatus(ctx, date, passNo, slotstore.StatusOwn)
	if err != nil {
		// the booking itself went through, only the cached status is stale
		// until the next sync cycle
		span.RecordError(err)
		return nil
	}
	return nil
}

// Unbook cancels a booking by its portal-side id.
func (s Service) Unbook(ctx context.Context, bookingId int) error {
	ctx, span := tracer.Start(ctx, "Unbook")
	defer span.End()
	span.SetAttributes(attribute.Int("booking_id", bookingId))

	session, err := s.login(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	confirmed, err := session.Unbook(ctx, bookingId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if !confirmed {
		span.SetStatus(codes.Error, ErrNotConfirmed.Error())
		return ErrNotConfirmed
	}
	return nil
}
