package internalhttp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/eventbook/eventbook/internal/app"
	"github.com/eventbook/eventbook/internal/timezone"
)

type Config struct {
	Host string
	Port int
}

type Server struct {
	srv  *http.Server
	addr string
	app  *app.App
	tz   timezone.Normalizer
}

func NewServer(config Config, app *app.App) *Server {
	gin.SetMode(gin.ReleaseMode)
	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr},
		app:  app,
		tz:   timezone.New(),
	}
}

func (s *Server) Start(_ context.Context) error {
	s.srv.Handler = s.router()

	log.Printf("starting http server on %s", s.addr)
	err := s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// router wires the REST endpoints. Every route keeps the trailing slash, and
// gin redirects bare paths onto it.
func (s *Server) router() *gin.Engine {
	router := gin.New()
	router.Use(requestIDMiddleware(), loggingMiddleware(), recoveryMiddleware())

	router.GET("/events/", s.listEvents)
	router.POST("/events/", s.createEvent)
	router.GET("/events/:id/", s.getEvent)
	router.PUT("/events/:id/", s.updateEvent)
	router.GET("/events/:id/attendees/", s.listAttendees)
	router.POST("/events/:id/register/", s.registerAttendee)

	return router
}

func getIP(req *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return "", fmt.Errorf("userip: %q is not IP:port", req.RemoteAddr)
	}

	if parsed := net.ParseIP(ip); parsed == nil {
		return "", fmt.Errorf("userip: %q is not IP:port", req.RemoteAddr)
	}
	return ip, nil
}
