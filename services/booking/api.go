package booking

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
	"aptusassist-backend/lib/slotstore"
	"aptusassist-backend/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

// day names the way the portal's tenants read them
var dayNames = [...]string{"söndag", "måndag", "tisdag", "onsdag", "torsdag", "fredag", "lördag"}

type SlotView struct {
	Date    string `json:"date"`
	DayName string `json:"dayName"`
	PassNo  int    `json:"passNo"`
	Time    string `json:"time"`
	Status  string `json:"status"`
}

type WeekView struct {
	WeekStart    string     `json:"weekStart"`
	CurrentWeek  bool       `json:"currentWeek"`
	PrevWeekDate string     `json:"prevWeekDate"`
	NextWeekDate string     `json:"nextWeekDate"`
	Slots        []SlotView `json:"slots"`
}

type errorView struct {
	Error string `json:"error"`
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Warn("failed to encode response body", "err", err)
	}
}

func (s Service) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/slots", s.handleSlots)
	mux.HandleFunc("POST /api/book", s.handleBook)
	mux.HandleFunc("POST /api/unbook", s.handleUnbook)
}

// WeekOf assembles the stored week containing date into a view with display
// labels. freeOnly narrows it to bookable passes.
func (s Service) WeekOf(ctx context.Context, date time.Time, freeOnly bool) (WeekView, error) {
	weekStart := timezone.MostRecentMonday(date)
	currentWeekStart := timezone.MostRecentMonday(timezone.Now())

	view := WeekView{
		WeekStart:    weekStart.Format(slotstore.DateFormat),
		CurrentWeek:  weekStart.Equal(currentWeekStart),
		PrevWeekDate: weekStart.AddDate(0, 0, -7).Format(slotstore.DateFormat),
		NextWeekDate: weekStart.AddDate(0, 0, 7).Format(slotstore.DateFormat),
		Slots:        []SlotView{},
	}

	for day := 0; day < 7; day++ {
		dayDate := weekStart.AddDate(0, 0, day)
		slots, err := s.store.FindByDate(ctx, dayDate)
		if err != nil {
			return WeekView{}, err
		}
		for _, slot := range slots {
			if freeOnly && slot.Status != slotstore.StatusFree {
				continue
			}
			view.Slots = append(view.Slots, SlotView{
				Date:    slot.Date.Format(slotstore.DateFormat),
				DayName: dayNames[slot.Date.Weekday()],
				PassNo:  slot.PassNo,
				Time:    s.schedule.Label(slot.PassNo),
				Status:  slot.Status,
			})
		}
	}
	return view, nil
}

func (s Service) handleSlots(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleSlots")
	defer span.End()

	date := timezone.Now()
	if passDate := r.URL.Query().Get("passDate"); passDate != "" {
		parsed, err := time.ParseInLocation(slotstore.DateFormat, passDate, timezone.Location)
		if err != nil {
			writeJson(w, http.StatusBadRequest, errorView{Error: "passDate must look like 2006-01-02"})
			return
		}
		date = parsed
	}
	freeOnly := r.URL.Query().Get("freeOnly") == "true"

	view, err := s.WeekOf(ctx, date, freeOnly)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		writeJson(w, http.StatusInternalServerError, errorView{Error: "failed to read slots"})
		return
	}
	writeJson(w, http.StatusOK, view)
}

type bookRequest struct {
	Date   string `json:"date"`
	PassNo int    `json:"passNo"`
}

type bookResponse struct {
	Date   string `json:"date"`
	PassNo int    `json:"passNo"`
	Time   string `json:"time"`
	Status string `json:"status"`
}

func (s Service) handleBook(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleBook")
	defer span.End()

	var req bookRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeJson(w, http.StatusBadRequest, errorView{Error: "malformed request body"})
		return
	}
	date, err := time.ParseInLocation(slotstore.DateFormat, req.Date, timezone.Location)
	if err != nil {
		writeJson(w, http.StatusBadRequest, errorView{Error: "date must look like 2006-01-02"})
		return
	}

	err = s.Book(ctx, date, req.PassNo)
	switch {
	case err == nil:
		writeJson(w, http.StatusOK, bookResponse{
			Date:   req.Date,
			PassNo: req.PassNo,
			Time:   s.schedule.Label(req.PassNo),
			Status: slotstore.StatusOwn,
		})
	case errors.Is(err, ErrAuthFailed):
		span.SetStatus(codes.Error, err.Error())
		writeJson(w, http.StatusUnauthorized, errorView{Error: err.Error()})
	case errors.Is(err, ErrNotAvailable):
		span.SetStatus(codes.Error, err.Error())
		writeJson(w, http.StatusBadRequest, errorView{Error: err.Error()})
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		writeJson(w, http.StatusInternalServerError, errorView{Error: "booking failed"})
	}
}

type unbookRequest struct {
	BookingId int `json:"bookingId"`
}

func (s Service) handleUnbook(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleUnbook")
	defer span.End()

	var req unbookRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeJson(w, http.StatusBadRequest, errorView{Error: "malformed request body"})
		return
	}

	err = s.Unbook(ctx, req.BookingId)
	switch {
	case err == nil:
		writeJson(w, http.StatusOK, map[string]string{"status": "cancelled"})
	case errors.Is(err, ErrAuthFailed):
		span.SetStatus(codes.Error, err.Error())
		writeJson(w, http.StatusUnauthorized, errorView{Error: err.Error()})
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		writeJson(w, http.StatusInternalServerError, errorView{Error: "cancellation failed"})
	}
}
