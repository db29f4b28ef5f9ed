package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/nao1215/sheetql"
	"github.com/nao1215/sheetql/domain/model"
)

func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}

func (s *Server) CreateSession(c echo.Context) error {
	session, err := s.sessions.create(c.Request().Context())
	if err != nil {
		return createErrorResponse(c, http.StatusInternalServerError, "Store error", err.Error())
	}
	s.logAction(c, session.ID(), "create session", nil)
	return c.JSON(http.StatusCreated, SessionResponse{OK: true, SessionID: session.ID()})
}

func (s *Server) DeleteSession(c echo.Context) error {
	id := c.Param("id")
	if err := s.sessions.remove(id); err != nil {
		if errors.Is(err, errSessionNotFound) {
			return createErrorResponse(c, http.StatusNotFound, "Resource not found", err.Error())
		}
		return createErrorResponse(c, http.StatusInternalServerError, "Store error", err.Error())
	}
	s.logAction(c, id, "close session", nil)
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}

func (s *Server) Upload(c echo.Context) error {
	session, err := s.sessions.get(c.Param("id"))
	if err != nil {
		return createErrorResponse(c, http.StatusNotFound, "Resource not found", err.Error())
	}

	limit := s.config.MaxUploadBytes()
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, limit)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return createErrorResponse(c, http.StatusRequestEntityTooLarge, "Upload too large",
				fmt.Sprintf("Uploads are limited to %d bytes", limit))
		}
		return createErrorResponse(c, http.StatusBadRequest, "Missing parameter",
			"A spreadsheet must be sent as multipart field 'file'")
	}
	if !sheetql.IsSupportedFile(fh.Filename) {
		return createErrorResponse(c, http.StatusBadRequest, "Ingestion error",
			fmt.Sprintf("%s is not a supported spreadsheet (supported: %s)",
				fh.Filename, strings.Join(sheetql.SupportedExtensions(), ", ")))
	}
	f, err := fh.Open()
	if err != nil {
		return createErrorResponse(c, http.StatusBadRequest, "Upload error", err.Error())
	}
	defer f.Close()

	summary, err := session.Upload(c.Request().Context(), fh.Filename, f)
	if err != nil {
		s.logFailure(c, session.ID(), "upload", err)
		return createErrorResponse(c, statusFor(err), errorTitle(err), err.Error())
	}

	s.logAction(c, session.ID(), "upload", log.JSON{"file": fh.Filename, "rows": summary.Rows})
	return c.JSON(http.StatusOK, UploadResponse{
		OK:      true,
		Name:    summary.Name,
		Columns: summary.Columns,
		Total:   summary.Rows,
		Preview: rowsOf(summary.Preview),
	})
}

func (s *Server) Preview(c echo.Context) error {
	session, err := s.sessions.get(c.Param("id"))
	if err != nil {
		return createErrorResponse(c, http.StatusNotFound, "Resource not found", err.Error())
	}

	n, _ := strconv.Atoi(c.QueryParam("rows"))
	header, rows, err := session.Preview(n)
	if err != nil {
		return createErrorResponse(c, statusFor(err), errorTitle(err), err.Error())
	}
	return c.JSON(http.StatusOK, PreviewResponse{
		OK:      true,
		Columns: columnsOf(header),
		Rows:    rowsOf(rows),
	})
}

func (s *Server) Persist(c echo.Context) error {
	session, err := s.sessions.get(c.Param("id"))
	if err != nil {
		return createErrorResponse(c, http.StatusNotFound, "Resource not found", err.Error())
	}

	n, err := session.Persist(c.Request().Context())
	if err != nil {
		s.logFailure(c, session.ID(), "persist", err)
		return createErrorResponse(c, statusFor(err), errorTitle(err), err.Error())
	}

	s.logAction(c, session.ID(), "persist", log.JSON{"rows": n})
	return c.JSON(http.StatusOK, PersistResponse{OK: true, Inserted: n})
}

func (s *Server) Columns(c echo.Context) error {
	session, err := s.sessions.get(c.Param("id"))
	if err != nil {
		return createErrorResponse(c, http.StatusNotFound, "Resource not found", err.Error())
	}

	columns, err := session.Columns(c.Request().Context())
	if err != nil {
		return createErrorResponse(c, statusFor(err), errorTitle(err), err.Error())
	}
	return c.JSON(http.StatusOK, ColumnsResponse{OK: true, Columns: columns})
}

func (s *Server) Search(c echo.Context) error {
	session, err := s.sessions.get(c.Param("id"))
	if err != nil {
		return createErrorResponse(c, http.StatusNotFound, "Resource not found", err.Error())
	}

	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return createQueryErrorResponse(c, http.StatusBadRequest, "Invalid request", err.Error())
	}

	var opts []sheetql.QueryOption
	if req.Limit > 0 {
		opts = append(opts, sheetql.WithLimit(req.Limit))
	}

	start := time.Now()
	rs, err := session.Search(c.Request().Context(), req.FilterSet(), opts...)
	if err != nil {
		s.logFailure(c, session.ID(), "search", err)
		return createQueryErrorResponse(c, statusFor(err), errorTitle(err), err.Error())
	}

	s.logAction(c, session.ID(), "search", log.JSON{"filters": len(req.FilterSet().Active()), "rows": rs.Len()})
	return c.JSON(http.StatusOK, resultResponse(rs, start))
}

func (s *Server) RawSQL(c echo.Context) error {
	session, err := s.sessions.get(c.Param("id"))
	if err != nil {
		return createErrorResponse(c, http.StatusNotFound, "Resource not found", err.Error())
	}

	var req SQLRequest
	if err := c.Bind(&req); err != nil {
		return createQueryErrorResponse(c, http.StatusBadRequest, "Invalid request", err.Error())
	}

	start := time.Now()
	rs, err := session.Run(c.Request().Context(), req.SQL)
	if err != nil {
		s.logFailure(c, session.ID(), "sql", err)
		return createQueryErrorResponse(c, statusFor(err), errorTitle(err), err.Error())
	}

	s.logAction(c, session.ID(), "sql", log.JSON{
		"sql":           sheetql.SanitizeForLog(req.SQL),
		"rows":          rs.Len(),
		"rows_affected": rs.RowsAffected,
	})
	return c.JSON(http.StatusOK, resultResponse(rs, start))
}

func (s *Server) Export(c echo.Context) error {
	session, err := s.sessions.get(c.Param("id"))
	if err != nil {
		return createErrorResponse(c, http.StatusNotFound, "Resource not found", err.Error())
	}

	format, err := model.ParseOutputFormat(c.QueryParam("format"))
	if err != nil {
		return createErrorResponse(c, http.StatusBadRequest, "Invalid parameter", err.Error())
	}
	compression, err := model.ParseCompressionType(c.QueryParam("compression"))
	if err != nil {
		return createErrorResponse(c, http.StatusBadRequest, "Invalid parameter", err.Error())
	}
	opts := model.NewDumpOptions().WithFormat(format).WithCompression(compression)

	var buf bytes.Buffer
	if err := session.Export(&buf, opts); err != nil {
		return createErrorResponse(c, statusFor(err), errorTitle(err), err.Error())
	}

	contentType := format.ContentType()
	if compression != model.CompressionNone {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", opts.FileName("")))
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

func (s *Server) logAction(c echo.Context, sessionID, action string, fields log.JSON) {
	entry := log.JSON{
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		"session":    sessionID,
		"action":     action,
	}
	for k, v := range fields {
		entry[k] = v
	}
	c.Logger().Infoj(entry)
}

func (s *Server) logFailure(c echo.Context, sessionID, action string, err error) {
	c.Logger().Errorj(log.JSON{
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		"session":    sessionID,
		"action":     action,
		"error":      err.Error(),
	})
}

func resultResponse(rs *sheetql.ResultSet, start time.Time) ResultResponse {
	return ResultResponse{
		OK:           true,
		QueryMS:      float64(time.Since(start).Microseconds()) / 1000,
		Columns:      columnsOf(rs.Columns),
		Rows:         rowsOf(rs.Rows),
		RowsAffected: rs.RowsAffected,
	}
}
