package internalhttp

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/eventbook/eventbook/internal/storage"
	"github.com/eventbook/eventbook/internal/timezone"
)

// eventRequest uses pointer fields so a missing key and a zero value stay
// distinguishable.
type eventRequest struct {
	Name        *string  `json:"name"`
	Location    *string  `json:"location"`
	StartTime   *string  `json:"start_time"`
	EndTime     *string  `json:"end_time"`
	MaxCapacity *float64 `json:"max_capacity"`
}

type eventView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	MaxCapacity int    `json:"max_capacity"`
}

func (s *Server) toEventView(e storage.Event, tzName string) eventView {
	return eventView{
		ID:          e.ID,
		Name:        e.Name,
		Location:    e.Location,
		StartTime:   s.tz.ToLocal(e.StartTime, tzName),
		EndTime:     s.tz.ToLocal(e.EndTime, tzName),
		MaxCapacity: e.MaxCapacity,
	}
}

func (s *Server) listEvents(c *gin.Context) {
	page := pageFromRequest(c)
	events, total, err := s.app.ListUpcomingEvents(c.Request.Context(), page)
	if err != nil {
		log.Errorf("failed to list events: %v", err)
		s.unexpectedError(c)
		return
	}

	tzName := c.GetHeader(timezoneHeader)
	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, s.toEventView(e, tzName))
	}

	message := msgEventsFetched
	if total == 0 {
		message = msgNoUpcomingEvents
	}
	c.JSON(http.StatusOK, Response{
		Success:    true,
		Message:    message,
		Pagination: paginationFor(c, page, total),
		Data:       views,
	})
}

func (s *Server) createEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: msgEventCreateFailed,
			Errors:  []string{errJSONParse},
		})
		return
	}

	event, errs := s.eventFromRequest(c, req)
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: msgEventCreateFailed, Errors: errs})
		return
	}

	created, err := s.app.CreateEvent(c.Request.Context(), event)
	if err != nil {
		if fields, ok := eventErrorFields(err); ok {
			c.JSON(http.StatusBadRequest, Response{Success: false, Message: msgEventCreateFailed, Errors: fields})
			return
		}
		log.Errorf("failed to create event: %v", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Message: msgEventCreateUnexpected,
			Errors:  []string{},
		})
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Message: msgEventCreated,
		Data:    s.toEventView(created, c.GetHeader(timezoneHeader)),
		Errors:  []string{},
	})
}

func (s *Server) getEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.eventNotFound(c)
		return
	}

	event, err := s.app.GetEvent(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFoundEvent) {
			s.eventNotFound(c)
			return
		}
		log.Errorf("failed to get event: %v", err)
		s.unexpectedError(c)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: msgEventFetched,
		Data:    s.toEventView(event, c.GetHeader(timezoneHeader)),
		Errors:  []string{},
	})
}

func (s *Server) updateEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.eventNotFound(c)
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: msgUpdateValidation,
			Errors:  []string{errJSONParse},
		})
		return
	}

	event, errs := s.eventFromRequest(c, req)
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: msgUpdateValidation,
			Errors:  []fieldErrors{errs},
		})
		return
	}

	if err := s.app.UpdateEvent(c.Request.Context(), id, event); err != nil {
		switch fields, ok := eventErrorFields(err); {
		case errors.Is(err, storage.ErrNotFoundEvent):
			s.eventNotFound(c)
		case ok:
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Message: msgUpdateValidation,
				Errors:  []fieldErrors{fields},
			})
		default:
			log.Errorf("failed to update event: %v", err)
			s.unexpectedError(c)
		}
		return
	}

	event.ID = id
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: msgEventUpdated,
		Data:    s.toEventView(event, c.GetHeader(timezoneHeader)),
	})
}

// eventFromRequest checks presence, length and datetime shape, converting the
// times to UTC with the X-Timezone header. Semantic rules live in storage.
func (s *Server) eventFromRequest(c *gin.Context, req eventRequest) (storage.Event, fieldErrors) {
	var event storage.Event
	errs := fieldErrors{}
	tzName := c.GetHeader(timezoneHeader)

	switch {
	case req.Name == nil:
		errs.add("name", errFieldRequired)
	case strings.TrimSpace(*req.Name) == "":
		errs.add("name", errFieldBlank)
	case utf8.RuneCountInString(*req.Name) > maxFieldLength:
		errs.add("name", errFieldTooLong)
	default:
		event.Name = *req.Name
	}

	switch {
	case req.Location == nil:
		errs.add("location", errFieldRequired)
	case strings.TrimSpace(*req.Location) == "":
		errs.add("location", errFieldBlank)
	case utf8.RuneCountInString(*req.Location) > maxFieldLength:
		errs.add("location", errFieldTooLong)
	default:
		event.Location = *req.Location
	}

	event.StartTime = s.timeField(req.StartTime, "start_time", tzName, errs)
	event.EndTime = s.timeField(req.EndTime, "end_time", tzName, errs)

	switch {
	case req.MaxCapacity == nil:
		errs.add("max_capacity", errFieldRequired)
	case *req.MaxCapacity != math.Trunc(*req.MaxCapacity):
		errs.add("max_capacity", errInvalidInteger)
	default:
		event.MaxCapacity = int(*req.MaxCapacity)
	}

	return event, errs
}

func (s *Server) timeField(value *string, field, tzName string, errs fieldErrors) time.Time {
	if value == nil {
		errs.add(field, errFieldRequired)
		return time.Time{}
	}

	t, err := s.tz.ToUTC(*value, tzName)
	switch {
	case errors.Is(err, timezone.ErrUnknownTimezone):
		if _, reported := errs["timezone"]; !reported {
			errs.add("timezone", errBadTimezone)
		}
	case errors.Is(err, timezone.ErrInvalidDatetime):
		errs.add(field, errBadDatetime)
	}
	return t
}

// eventErrorFields maps a storage validation failure to its envelope field.
func eventErrorFields(err error) (fieldErrors, bool) {
	errs := fieldErrors{}
	switch {
	case errors.Is(err, storage.ErrBlankName):
		errs.add("name", errFieldBlank)
	case errors.Is(err, storage.ErrDuplicateEventName):
		errs.add("name", errDuplicateName)
	case errors.Is(err, storage.ErrBlankLocation):
		errs.add("location", errFieldBlank)
	case errors.Is(err, storage.ErrPastStartTime):
		errs.add("start_time", errStartTimeFuture)
	case errors.Is(err, storage.ErrEndBeforeStart):
		errs.add("end_time", errEndAfterStart)
	case errors.Is(err, storage.ErrInvalidCapacity):
		errs.add("max_capacity", errCapacityMin)
	default:
		return nil, false
	}
	return errs, true
}

func (s *Server) eventNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, Response{
		Success: false,
		Message: msgEventNotFound,
		Data:    map[string]any{},
		Errors:  []string{},
	})
}

func (s *Server) unexpectedError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Message: msgUnexpectedError,
		Errors:  []string{},
	})
}
