package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

const (
	// DocumentPolicy gives a directly opened document the iframe's isolation
	DocumentPolicy = "sandbox allow-scripts"
	// VersionHeader carries the version of a served document
	VersionHeader = "X-Document-Version"

	gzipMinSize = 1024
)

// Document serves the latest composed document as an HTML page
func (h *Handlers) Document(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	doc, ok := s.Recorder.Document()
	if !ok {
		// nothing composed yet: the preview stays empty
		c.Header(VersionHeader, "0")
		c.Status(http.StatusNoContent)
		return
	}

	etag := h.hasher.ETag(doc.HTML)
	c.Header(VersionHeader, strconv.FormatUint(doc.Version, 10))
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	h.writeHTML(c, doc.HTML)
}

// Compose renders the current buffers immediately. The pending composition,
// if any, still fires and the version counter is not advanced.
func (h *Handlers) Compose(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	h.writeHTML(c, playground.Compose(s.Workspace.Snapshot()))
}

func (h *Handlers) writeHTML(c *gin.Context, html string) {
	c.Header("Content-Security-Policy", DocumentPolicy)
	c.Header("Cache-Control", "no-store")
	c.Header("Vary", "Accept-Encoding")

	h.logger.Debug("Serving document",
		zap.String("path", c.FullPath()),
		zap.String("size", humanize.Bytes(uint64(len(html)))),
	)

	if len(html) < gzipMinSize || !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Content-Encoding", "gzip")
	c.Status(http.StatusOK)
	gz, err := gzip.NewWriterLevel(c.Writer, gzip.BestSpeed)
	if err != nil {
		h.logger.Error("Failed to create gzip writer", zap.Error(err))
		return
	}
	defer gz.Close()
	if _, err := gz.Write([]byte(html)); err != nil {
		h.logger.Warn("Failed to write document", zap.Error(err))
	}
}
