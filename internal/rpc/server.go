package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"csvpub/internal/service"
)

// Server is the HTTP front end of the connector. It binds a loopback
// port chosen by the host process and speaks JSON: unary discover,
// NDJSON streaming publish. The wire is unauthenticated; the port
// handshake over stdout is the only access control.
type Server struct {
	svc    *service.ConnectorService
	log    *zap.SugaredLogger
	engine *gin.Engine
	http   *http.Server
}

// New builds the router. Release mode keeps gin quiet on stderr and,
// more importantly, off stdout, which belongs to the port handshake.
func New(svc *service.ConnectorService, log *zap.SugaredLogger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{svc: svc, log: log}
	engine := gin.New()
	engine.Use(requestLogger(log), gin.Recovery())

	engine.GET("/healthz", s.handleHealthz)
	r := engine.Group("/rpc")
	{
		r.POST("/discover", s.handleDiscover)
		r.POST("/publish", s.handlePublish)
		r.GET("/schemas", s.handleSchemas)
		r.GET("/runs", s.handleRuns)
		r.GET("/publish_runs", s.handlePublishRuns)
	}

	s.engine = engine
	s.http = &http.Server{Handler: engine}
	return s
}

// Listen binds the listener. Port 0 asks the kernel for a free
// ephemeral port; the actually bound port is returned so the caller
// can announce it on stdout.
func (s *Server) Listen(host string, port int) (net.Listener, int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, 0, fmt.Errorf("bind %s:%d: %w", host, port, err)
	}
	return l, l.Addr().(*net.TCPAddr).Port, nil
}

// Serve blocks serving the listener until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	if err := s.http.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func requestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Infow("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
