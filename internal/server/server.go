// Package server exposes profiles and view map generation over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lenticular-viewmap/internal/export"
	"lenticular-viewmap/internal/profile"
	"lenticular-viewmap/internal/viewmap"
)

var contentTypes = map[export.Format]string{
	export.FormatRaw:  "application/octet-stream",
	export.FormatVMZ:  "application/octet-stream",
	export.FormatBMP:  "image/bmp",
	export.FormatWebP: "image/webp",
	export.FormatTGA:  "image/x-tga",
	export.FormatPNG:  "image/png",
}

type handler struct {
	profiles *profile.Cache
	log      *slog.Logger
}

// NewRouter builds the gin engine serving the profiles of cache.
func NewRouter(cache *profile.Cache, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &handler{profiles: cache, log: logger}

	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery())

	r.GET("/healthz", h.health)
	r.GET("/profiles", h.listProfiles)
	r.GET("/profiles/:name", h.getProfile)
	r.GET("/viewmap/:name", h.getViewMap)
	return r
}

// Serve runs the router on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, router http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.LogAttrs(c.Request.Context(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Int("bytes", c.Writer.Size()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "profiles": h.profiles.Index().Len()})
}

func (h *handler) listProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profiles": h.profiles.Index().Names()})
}

func (h *handler) getProfile(c *gin.Context) {
	e, err := h.profiles.Resolve(c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	info, err := viewmap.Describe(e.Monitor, viewmap.BuildOptions{})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":        e.Name,
		"calibration": e.Calibration,
		"monitor":     e.Monitor.Params(),
		"view_map":    info,
	})
}

func (h *handler) getViewMap(c *gin.Context) {
	e, err := h.profiles.Resolve(c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}

	align, err := viewmap.ParseAlignment(c.Query("alignment"))
	if err != nil {
		h.fail(c, err)
		return
	}

	q := query{c: c}
	opts := viewmap.BuildOptions{
		HQMode:    q.boolean("hq"),
		EnlargeX:  q.boolean("enlarge_x"),
		EnlargeY:  q.boolean("enlarge_y"),
		BGR:       q.boolean("bgr"),
		InvertY:   q.boolean("invert_y"),
		Alignment: align,
		ZeroPixel: viewmap.ZeroPixel{X: q.u32("zx"), Y: q.u32("zy"), Z: q.u32("zc")},
	}
	if s := c.Query("padding"); s != "" {
		n, err := strconv.ParseInt(s, 10, 8)
		if err != nil {
			q.errs = append(q.errs, fmt.Errorf("padding: %w", err))
		}
		opts.LinePadding = viewmap.LinePadding(n)
	}
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatBMP)))
	if err != nil {
		q.errs = append(q.errs, err)
	}
	exportOpts := export.Options{Visualize: q.boolean("visualize")}
	if err := errors.Join(q.errs...); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": viewmap.InvalidParameter.String()})
		return
	}

	vm, err := viewmap.Build(e.Monitor, opts)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer vm.Release()

	var buf bytes.Buffer
	if err := export.Encode(&buf, vm, format, exportOpts); err != nil {
		h.fail(c, err)
		return
	}
	c.Header("X-View-Count", strconv.Itoa(int(vm.ViewCount)))
	c.Header("X-Scanline-Size", strconv.FormatUint(uint64(vm.ScanLineSize), 10))
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", e.Name+format.Ext()))
	c.Data(http.StatusOK, contentTypes[format], buf.Bytes())
}

// fail maps err onto an HTTP status and writes it as JSON.
func (h *handler) fail(c *gin.Context, err error) {
	code := viewmap.CodeOf(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, profile.ErrUnknownProfile):
		status = http.StatusNotFound
	case code == viewmap.InvalidParameter:
		status = http.StatusBadRequest
	case code == viewmap.NotImplemented:
		status = http.StatusNotImplemented
	}
	if status == http.StatusInternalServerError {
		h.log.Error("server: request failed", "path", c.Request.URL.Path, "err", err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code.String()})
}

// query collects typed query parameters and their parse errors.
type query struct {
	c    *gin.Context
	errs []error
}

func (q *query) boolean(key string) bool {
	s := q.c.Query(key)
	if s == "" {
		return false
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		q.errs = append(q.errs, fmt.Errorf("%s: %w", key, err))
	}
	return v
}

func (q *query) u32(key string) uint32 {
	s := q.c.Query(key)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		q.errs = append(q.errs, fmt.Errorf("%s: %w", key, err))
	}
	return uint32(v)
}
