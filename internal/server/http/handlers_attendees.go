package internalhttp

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/eventbook/eventbook/internal/storage"
)

type attendeeRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type attendeeView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toAttendeeView(a storage.Attendee) attendeeView {
	return attendeeView{ID: a.ID, Name: a.Name, Email: a.Email}
}

func (s *Server) listAttendees(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.eventNotFound(c)
		return
	}

	page := pageFromRequest(c)
	attendees, total, err := s.app.ListAttendees(c.Request.Context(), id, page)
	if err != nil {
		log.Errorf("failed to list attendees: %v", err)
		s.unexpectedError(c)
		return
	}

	views := make([]attendeeView, 0, len(attendees))
	for _, a := range attendees {
		views = append(views, toAttendeeView(a))
	}

	message := msgAttendeesFetched
	if total == 0 {
		message = msgNoAttendees
	}
	c.JSON(http.StatusOK, Response{
		Success:    true,
		Message:    message,
		Pagination: paginationFor(c, page, total),
		Data:       views,
	})
}

func (s *Server) registerAttendee(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.registerEventMissing(c)
		return
	}

	var req attendeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: msgIncorrectData,
			Errors:  []string{errJSONParse},
		})
		return
	}

	errs := fieldErrors{}
	if req.Name == nil {
		errs.add("name", errFieldRequired)
	} else if utf8.RuneCountInString(*req.Name) > maxFieldLength {
		errs.add("name", errFieldTooLong)
	}
	if req.Email == nil {
		errs.add("email", errFieldRequired)
	} else if strings.TrimSpace(*req.Email) == "" {
		errs.add("email", errFieldBlank)
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: msgIncorrectData, Errors: errs})
		return
	}

	attendee := storage.Attendee{Name: *req.Name, Email: *req.Email}
	created, err := s.app.RegisterAttendee(c.Request.Context(), id, attendee)
	if err != nil {
		s.renderRegisterError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Message: msgAttendeeRegistered,
		Data:    toAttendeeView(created),
		Errors:  map[string][]string{},
	})
}

func (s *Server) renderRegisterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFoundEvent):
		s.registerEventMissing(c)
	case errors.Is(err, storage.ErrCapacityExceeded):
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: msgEventFull, Errors: []string{}})
	case errors.Is(err, storage.ErrDuplicateRegistration):
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: msgDuplicateAttendee,
			Errors:  map[string][]string{},
		})
	case errors.Is(err, storage.ErrBlankName):
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: msgIncorrectData,
			Errors:  fieldErrors{"name": {errFieldBlank}},
		})
	case errors.Is(err, storage.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: msgIncorrectData,
			Errors:  fieldErrors{"email": {errInvalidEmail}},
		})
	default:
		log.Errorf("failed to register attendee: %v", err)
		s.unexpectedError(c)
	}
}

func (s *Server) registerEventMissing(c *gin.Context) {
	c.JSON(http.StatusNotFound, Response{
		Success: false,
		Message: msgEventDoesNotExist,
		Errors:  []string{},
	})
}
