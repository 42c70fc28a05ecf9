// Package api provides the REST API server for dmf2midi
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/james-see/dmf2midi/pkg/config"
	"github.com/james-see/dmf2midi/pkg/converter"
	"github.com/james-see/dmf2midi/pkg/dmf"
	"github.com/james-see/dmf2midi/pkg/dmf/engines"
	"github.com/james-see/dmf2midi/pkg/mml"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// WarningHeader carries conversion warnings on successful responses.
const WarningHeader = "X-Dmf2midi-Warning"

// maxUpload bounds the size of an uploaded file.
const maxUpload = 16 << 20

// @title DMF2MIDI API
// @version 1.0
// @description API for converting DMF sequences to MIDI and MIDI to MML
// @host localhost:8080
// @BasePath /api/v1

// Server holds the conversion defaults applied to every request. Each
// request builds its own converter, so requests never share decoder state.
type Server struct {
	cfg *config.Config
}

// NewServer creates a server with the given defaults. A nil config uses
// config.DefaultConfig().
func NewServer(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{cfg: cfg}
}

// StartServer starts the API server on the specified port
func StartServer(port int, cfg *config.Config) error {
	return NewServer(cfg).Router().Run(fmt.Sprintf(":%d", port))
}

// Router builds the gin engine with all routes
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.POST("/convert/dmf2midi", s.handleDMFToMIDI)
		v1.POST("/convert/mid2mml", s.handleMIDIToMML)
		v1.GET("/formats", listFormats)
		v1.GET("/engines", listEngines)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Expose-Headers", WarningHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "dmf2midi",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns a list of supported file formats
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":     []string{"dmf", "midi", "mml"},
		"conversions": converter.GetSupportedConversions(),
	})
}

// listEngines godoc
// @Summary List supported game engines
// @Description Returns the DMF dialects that can be decoded
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]engines.Info
// @Router /api/v1/engines [get]
func listEngines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"engines": engines.List(),
	})
}

// handleDMFToMIDI godoc
// @Summary Convert DMF to MIDI
// @Description Upload a DMF sequence and receive a Standard MIDI File
// @Tags convert
// @Accept multipart/form-data
// @Produce audio/midi
// @Param file formData file true "DMF file to convert"
// @Param game query string false "Game engine (default: hokuto)"
// @Param lv query bool false "Linear volume"
// @Param reset query string false "Reset type: gs, gm1, gm2, xg"
// @Param max_ticks query int false "Scheduler tick bound"
// @Param loop query int false "Loop count, 0 follows loops until max_ticks"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/convert/dmf2midi [post]
func (s *Server) handleDMFToMIDI(c *gin.Context) {
	data, name, ok := readUpload(c)
	if !ok {
		return
	}

	opts, err := s.dmfOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conv := converter.New(c.DefaultQuery("game", s.cfg.Game), opts)

	res, err := conv.DMFToMIDI(data)
	if err != nil {
		writeError(c, err)
		return
	}
	if res.Data == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "nothing to convert",
			"warnings": res.Warnings,
		})
		return
	}
	writeResult(c, name, ".mid", "audio/midi", res)
}

// handleMIDIToMML godoc
// @Summary Convert MIDI to MML
// @Description Upload a MIDI file and receive MML text
// @Tags convert
// @Accept multipart/form-data
// @Produce text/plain
// @Param file formData file true "MIDI file to convert"
// @Param dots query int false "Maximum dot count"
// @Param octave_reverse query bool false "Swap the octave symbols"
// @Param use_triplet query bool false "Use triplet lengths"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/mid2mml [post]
func (s *Server) handleMIDIToMML(c *gin.Context) {
	data, name, ok := readUpload(c)
	if !ok {
		return
	}

	opts, err := s.mmlOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conv := converter.New(s.cfg.Game, s.cfg.DMFOptions())
	conv.SetMMLOptions(opts)

	res, err := conv.MIDIToMML(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	writeResult(c, name, ".txt", "text/plain; charset=utf-8", res)
}

func readUpload(c *gin.Context) ([]byte, string, bool) {
	// Get uploaded file
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	// Read file content
	data, err := io.ReadAll(io.LimitReader(file, maxUpload+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, "", false
	}
	if len(data) > maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return nil, "", false
	}
	return data, header.Filename, true
}

func (s *Server) dmfOptions(c *gin.Context) (dmf.Options, error) {
	opts := s.cfg.DMFOptions()
	var err error

	if v, ok := c.GetQuery("lv"); ok {
		if opts.LinearVolume, err = strconv.ParseBool(v); err != nil {
			return opts, fmt.Errorf("invalid lv: %q", v)
		}
	}
	if v, ok := c.GetQuery("reset"); ok {
		if opts.Reset, err = dmf.ParseResetKind(v); err != nil {
			return opts, err
		}
	}
	if v, ok := c.GetQuery("max_ticks"); ok {
		if opts.MaxTicks, err = strconv.Atoi(v); err != nil || opts.MaxTicks < 1 || int64(opts.MaxTicks) > dmf.MaxTickLimit {
			return opts, fmt.Errorf("invalid max_ticks: %q", v)
		}
	}
	if v, ok := c.GetQuery("loop"); ok {
		if opts.LoopCount, err = strconv.Atoi(v); err != nil || opts.LoopCount < 0 {
			return opts, fmt.Errorf("invalid loop: %q", v)
		}
	}
	return opts, nil
}

func (s *Server) mmlOptions(c *gin.Context) (mml.Options, error) {
	opts := s.cfg.MMLOptions()
	var err error

	if v, ok := c.GetQuery("dots"); ok {
		if opts.MaxDots, err = strconv.Atoi(v); err != nil || opts.MaxDots < 0 {
			return opts, fmt.Errorf("invalid dots: %q", v)
		}
	}
	if v, ok := c.GetQuery("octave_reverse"); ok {
		if opts.OctaveReverse, err = strconv.ParseBool(v); err != nil {
			return opts, fmt.Errorf("invalid octave_reverse: %q", v)
		}
	}
	if v, ok := c.GetQuery("use_triplet"); ok {
		if opts.UseTriplet, err = strconv.ParseBool(v); err != nil {
			return opts, fmt.Errorf("invalid use_triplet: %q", v)
		}
	}
	return opts, nil
}

// writeError maps conversion errors onto status codes
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dmf.ErrInvalidSignature), errors.Is(err, dmf.ErrNoEngine):
		status = http.StatusBadRequest
	case dmf.IsSongError(err):
		status = http.StatusUnprocessableEntity
	}
	body := gin.H{"error": err.Error()}
	if stage := dmf.Stage(err); stage != "" {
		body["stage"] = stage
	}
	c.JSON(status, body)
}

func writeResult(c *gin.Context, uploadName, ext, contentType string, res *converter.ConversionResult) {
	// Generate output filename
	outputName := "converted" + ext
	if base := filepath.Base(uploadName); base != "." && base != "/" && base != "" {
		outputName = converter.OutputPath(base, res.Format)
	}

	for _, w := range res.Warnings {
		c.Writer.Header().Add(WarningHeader, strings.ReplaceAll(w, "\n", " "))
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputName))
	c.Data(http.StatusOK, contentType, res.Data)
}
