package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/medilink/scheduling/internal/scheduling"
)

var validate = validator.New()

func createWindowHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateWindowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		providerID, err := uuid.Parse(req.ProviderID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "provider_id must be a valid UUID")
			return
		}

		win, err := windowFromRequest(providerID, req)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		created, err := svc.CreateWindow(r.Context(), *win)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toWindowResponse(created))
	}
}

func updateWindowHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req UpdateWindowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		upd, err := windowUpdateFromRequest(req)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		updated, err := svc.UpdateWindow(r.Context(), id, *upd)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toWindowResponse(updated))
	}
}

func deactivateWindowHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.DeactivateWindow(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func purgeWindowHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.PurgeWindow(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listProviderWindowsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		windows, err := svc.ListActiveWindows(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]WindowResponse, 0, len(windows))
		for i := range windows {
			resp = append(resp, toWindowResponse(&windows[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func availableSlotsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be an RFC3339 timestamp")
			return
		}
		to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", "to must be an RFC3339 timestamp")
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), id, from, to)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if slots == nil {
			slots = []time.Time{}
		}

		writeJSON(w, http.StatusOK, AvailableSlotsResponse{
			ProviderID: id,
			From:       from.UTC(),
			To:         to.UTC(),
			Slots:      slots,
		})
	}
}

// windowFromRequest converts the transport shape into the domain window.
// Detailed invariants (bounds ordering, weekday names) are enforced by the
// lifecycle manager, not here.
func windowFromRequest(providerID uuid.UUID, req CreateWindowRequest) (*scheduling.AvailabilityWindow, error) {
	w := scheduling.AvailabilityWindow{
		ProviderID: providerID,
		Kind:       scheduling.WindowKind(req.Kind),
	}

	if req.StartAt != nil {
		w.StartAt = *req.StartAt
	}
	if req.EndAt != nil {
		w.EndAt = *req.EndAt
	}

	if req.DaysOfWeek != nil {
		set, err := scheduling.ParseWeekdaySet(req.DaysOfWeek)
		if err != nil {
			return nil, err
		}
		w.DaysOfWeek = set
	}
	if req.RecurrenceStart != nil {
		d, err := parseDate(*req.RecurrenceStart)
		if err != nil {
			return nil, err
		}
		w.RecurrenceStart = &d
	}
	if req.RecurrenceEnd != nil {
		d, err := parseDate(*req.RecurrenceEnd)
		if err != nil {
			return nil, err
		}
		w.RecurrenceEnd = &d
	}
	if req.DailyStart != nil {
		t, err := parseClock(*req.DailyStart)
		if err != nil {
			return nil, err
		}
		w.StartAt = t
	}
	if req.DailyEnd != nil {
		t, err := parseClock(*req.DailyEnd)
		if err != nil {
			return nil, err
		}
		w.EndAt = t
	}

	return &w, nil
}

func windowUpdateFromRequest(req UpdateWindowRequest) (*scheduling.WindowUpdate, error) {
	var upd scheduling.WindowUpdate

	upd.StartAt = req.StartAt
	upd.EndAt = req.EndAt

	if req.DaysOfWeek != nil {
		set, err := scheduling.ParseWeekdaySet(req.DaysOfWeek)
		if err != nil {
			return nil, err
		}
		upd.DaysOfWeek = &set
	}
	if req.RecurrenceStart != nil {
		d, err := parseDate(*req.RecurrenceStart)
		if err != nil {
			return nil, err
		}
		upd.RecurrenceStart = &d
	}
	if req.RecurrenceEnd != nil {
		d, err := parseDate(*req.RecurrenceEnd)
		if err != nil {
			return nil, err
		}
		upd.RecurrenceEnd = &d
	}
	if req.DailyStart != nil {
		t, err := parseClock(*req.DailyStart)
		if err != nil {
			return nil, err
		}
		upd.StartAt = &t
	}
	if req.DailyEnd != nil {
		t, err := parseClock(*req.DailyEnd)
		if err != nil {
			return nil, err
		}
		upd.EndAt = &t
	}

	return &upd, nil
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

// parseClock turns "09:00" into a time whose clock component carries the
// daily bound; the date part is an arbitrary fixed day.
func parseClock(s string) (time.Time, error) {
	t, err := time.ParseInLocation("15:04", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(2000, time.January, 1, t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
