package rpc

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"csvpub/internal/domain"
	"csvpub/internal/service"
)

// Application error codes carried in the error envelope.
const (
	codeProtocol = "PROTOCOL_ERROR"
	codeInternal = "INTERNAL_ERROR"
	codeCatalog  = "CATALOG_DISABLED"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, apiError{Code: code, Message: message})
}

// errStatus maps an operation error onto an HTTP status: malformed
// requests are the client's fault, everything else is ours.
func errStatus(err error) (int, string) {
	var perr *domain.ProtocolError
	if errors.As(err, &perr) {
		return http.StatusBadRequest, codeProtocol
	}
	return http.StatusInternalServerError, codeInternal
}

// handleDiscover runs a discovery pass for the posted settings and
// returns every schema it found. An empty list is a valid answer.
func (s *Server) handleDiscover(c *gin.Context) {
	var settings domain.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		respondError(c, http.StatusBadRequest, codeProtocol, "invalid request payload: "+err.Error())
		return
	}

	schemas, err := s.svc.Discover(c.Request.Context(), settings)
	if err != nil {
		status, code := errStatus(err)
		respondError(c, status, code, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"schemas": schemas})
}

// handlePublish streams records as NDJSON. The status line commits
// once the first record is written, so request-level failures are
// only reported as an envelope while nothing has been sent yet.
func (s *Server) handlePublish(c *gin.Context) {
	var req service.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeProtocol, "invalid request payload: "+err.Error())
		return
	}

	recs, errs := s.svc.Publish(c.Request.Context(), req)

	wrote := false
	enc := json.NewEncoder(c.Writer)
	for rec := range recs {
		if !wrote {
			c.Header("Content-Type", "application/x-ndjson")
			c.Status(http.StatusOK)
			wrote = true
		}
		if err := enc.Encode(rec); err != nil {
			// Client went away; the request context tears down the stream.
			s.log.Debugw("publish write failed", "schema", req.Schema.Name, "error", err)
			break
		}
		c.Writer.Flush()
	}
	for range recs {
	}

	if err := <-errs; err != nil {
		if !wrote {
			status, code := errStatus(err)
			respondError(c, status, code, err.Error())
			return
		}
		s.log.Warnw("publish stream ended with error", "schema", req.Schema.Name, "error", err)
		return
	}
	if !wrote {
		// Valid but empty stream: commit the NDJSON response anyway.
		c.Header("Content-Type", "application/x-ndjson")
		c.Status(http.StatusOK)
	}
}

// handleSchemas returns the schemas of the last successful discovery.
func (s *Server) handleSchemas(c *gin.Context) {
	schemas, err := s.svc.KnownSchemas()
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, codeCatalog, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"schemas": schemas})
}

// handleRuns returns recent discovery runs, newest first.
func (s *Server) handleRuns(c *gin.Context) {
	runs, err := s.svc.DiscoveryHistory(limitParam(c))
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, codeCatalog, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// handlePublishRuns returns recent publish streams, newest first.
func (s *Server) handlePublishRuns(c *gin.Context) {
	runs, err := s.svc.PublishHistory(limitParam(c))
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, codeCatalog, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "activeOps": s.svc.ActiveOps()})
}

func limitParam(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		return 20
	}
	return limit
}
