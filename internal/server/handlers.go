package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rezonia/einvoice-extractor/internal/model"
	"github.com/rezonia/einvoice-extractor/internal/processor"
)

// PasswordHeader carries the PDF password
const PasswordHeader = "X-PDF-Password"

const (
	xmlTimeout = 30 * time.Second
	pdfTimeout = 2 * time.Minute
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleExtractPDF(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	mode, ok := s.mode(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pdfTimeout)
	defer cancel()

	result, err := s.pipeline.ExtractFromPDF(ctx, body, s.password(c), mode)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleExtractXML(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	mode, ok := s.mode(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), xmlTimeout)
	defer cancel()

	result, err := s.pipeline.ExtractFromXML(ctx, body, c.DefaultQuery("filename", "invoice.xml"), mode)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleExtractAuto(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	mode, ok := s.mode(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pdfTimeout)
	defer cancel()

	result, err := s.pipeline.Extract(ctx, processor.Item{
		Name:     c.Query("filename"),
		Data:     body,
		Password: s.password(c),
		Mode:     mode,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleExtractBatch(c *gin.Context) {
	mode, ok := s.mode(c)
	if !ok {
		return
	}

	continueOnFail := true
	if v := c.Query("continueOnFail"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid continueOnFail value"})
			return
		}
		continueOnFail = parsed
	}

	form, err := c.MultipartForm()
	if err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "expected multipart form with files"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no files uploaded"})
		return
	}

	password := s.password(c)
	items := make([]processor.Item, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read " + fh.Filename})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read " + fh.Filename})
			return
		}
		items = append(items, processor.Item{Name: fh.Filename, Data: data, Password: password, Mode: mode})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pdfTimeout)
	defer cancel()

	results, err := s.pipeline.ExtractBatch(ctx, items, processor.BatchOptions{
		Concurrency:    s.config.Concurrency,
		ContinueOnFail: continueOnFail,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := BatchResponse{Items: make([]BatchItem, 0, len(results))}
	for _, r := range results {
		item := BatchItem{Index: r.Index, File: r.Name}
		if r.Err != nil {
			item.Error = r.Err.Error()
			item.Code = model.CodeOf(r.Err)
			resp.Failed++
		} else {
			item.Result = r.Result
			resp.Succeeded++
		}
		resp.Items = append(resp.Items, item)
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleInfo(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pdfTimeout)
	defer cancel()

	info, err := s.pipeline.Inspect(ctx, body, s.password(c))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// Helper functions

func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return nil, false
	}

	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty request body"})
		return nil, false
	}

	return body, true
}

// mode reads the output mode from the mode query parameter, falling back
// to the returnRawJSON and returnRawXML flags
func (s *Server) mode(c *gin.Context) (model.Mode, bool) {
	if v, ok := c.GetQuery("mode"); ok {
		mode, err := processor.ParseMode(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return "", false
		}
		return mode, true
	}

	flags := make(map[string]bool, 2)
	for _, name := range []string{"returnRawJSON", "returnRawXML"} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name + " value"})
			return "", false
		}
		flags[name] = b
	}

	return processor.ResolveMode(flags["returnRawJSON"], flags["returnRawXML"]), true
}

func (s *Server) password(c *gin.Context) string {
	if pw := c.GetHeader(PasswordHeader); pw != "" {
		return pw
	}
	if pw := c.Query("password"); pw != "" {
		return pw
	}
	return s.config.PDFPassword
}

// fail maps an extraction error to its HTTP status
func (s *Server) fail(c *gin.Context, err error) {
	var extErr *model.ExtractionError
	var inputErr *model.InputError

	switch {
	case errors.As(err, &extErr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: extErr.Code})
	case errors.As(err, &inputErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: "extraction timed out"})
	default:
		s.logger.Error("extraction failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}
