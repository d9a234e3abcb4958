// Package slotstore persists the last known status of every laundry pass so
// sync cycles can tell which slots changed since the previous scrape.
package slotstore

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
	"aptusassist-backend/lib/slotstore/db"
	"aptusassist-backend/lib/timezone"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const DateFormat = "2006-01-02"

const (
	StatusFree = "free"
	StatusOwn  = "own"
	StatusBusy = "busy"
)

func validStatus(status string) bool {
	return status == StatusFree || status == StatusOwn || status == StatusBusy
}

type Slot struct {
	Date   time.Time
	PassNo int
	Status string
}

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

func (s Store) slotFromRow(ctx context.Context, row db.Slot) (Slot, bool) {
	date, err := time.ParseInLocation(DateFormat, row.Date, timezone.Location)
	if err != nil {
		slog.WarnContext(ctx, "discarding slot row with a malformed date",
			"date", row.Date, "err", err)
		return Slot{}, false
	}
	if !validStatus(row.Status) {
		slog.WarnContext(ctx, "discarding slot row with an unknown status",
			"date", row.Date, "pass_no", row.PassNo, "status", row.Status)
		return Slot{}, false
	}
	return Slot{
		Date:   date,
		PassNo: int(row.PassNo),
		Status: row.Status,
	}, true
}

func (s Store) FindAll(ctx context.Context) ([]Slot, error) {
	rows, err := s.qry.GetSlots(ctx)
	if err != nil {
		return nil, err
	}

	var slots []Slot
	for _, row := range rows {
		slot, ok := s.slotFromRow(ctx, row)
		if !ok {
			continue
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (s Store) FindByDate(ctx context.Context, date time.Time) ([]Slot, error) {
	rows, err := s.qry.GetSlotsByDate(ctx, date.Format(DateFormat))
	if err != nil {
		return nil, err
	}

	var slots []Slot
	for _, row := range rows {
		slot, ok := s.slotFromRow(ctx, row)
		if !ok {
			continue
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// FindByKey returns the stored slot for (date, passNo). the second return
// value reports whether one exists.
func (s Store) FindByKey(ctx context.Context, date time.Time, passNo int) (Slot, bool, error) {
	row, err := s.qry.GetSlot(ctx, db.GetSlotParams{
		Date:   date.Format(DateFormat),
		PassNo: int64(passNo),
	})
	if err == sql.ErrNoRows {
		return Slot{}, false, nil
	}
	if err != nil {
		return Slot{}, false, err
	}

	slot, ok := s.slotFromRow(ctx, row)
	if !ok {
		return Slot{}, false, nil
	}
	return slot, true, nil
}

// SaveAll upserts every slot in one transaction. re-saving the same scrape is
// idempotent, a (date, passNo) key only ever has one row.
func (s Store) SaveAll(ctx context.Context, slots []Slot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	for _, slot := range slots {
		if !validStatus(slot.Status) {
			slog.WarnContext(ctx, "refusing to save slot with an unknown status",
				"date", slot.Date.Format(DateFormat),
				"pass_no", slot.PassNo,
				"status", slot.Status)
			continue
		}
		err := txqry.UpsertSlot(ctx, db.UpsertSlotParams{
			Date:   slot.Date.Format(DateFormat),
			PassNo: int64(slot.PassNo),
			Status: slot.Status,
		})
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s Store) UpdateStatus(ctx context.Context, date time.Time, passNo int, status string) error {
	if !validStatus(status) {
		slog.WarnContext(ctx, "refusing to update slot to an unknown status",
			"date", date.Format(DateFormat), "pass_no", passNo, "status", status)
		return nil
	}
	return s.qry.SetSlotStatus(ctx, db.SetSlotStatusParams{
		Status: status,
		Date:   date.Format(DateFormat),
		PassNo: int64(passNo),
	})
}

// Prune drops slots older than the given date. past passes cannot be booked
// so there is no point diffing against them.
func (s Store) Prune(ctx context.Context, before time.Time) error {
	return s.qry.DeleteSlotsBefore(ctx, before.Format(DateFormat))
}
