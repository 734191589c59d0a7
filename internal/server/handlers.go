package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/discovery"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/export"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/model"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/table"
)

const (
	headerExportID  = "X-Export-ID"
	headerTruncated = "X-Export-Truncated"
	uploadField     = "csv_file"
)

// exportRoute describes a route that builds an identifier batch from a text
// field and an optional upload.
type exportRoute struct {
	field       string
	defaultName string
	run         func(context.Context, discovery.Request) (*model.ExportResult, error)
}

func (s *Server) batchRoute(route exportRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.parseForm(w, r); err != nil {
			writeError(w, r, err)
			return
		}

		limit, err := parseLimit(r.FormValue("limit"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		tbl, err := readUpload(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		res, err := route.run(r.Context(), discovery.Request{
			Text:  r.FormValue(route.field),
			Table: tbl,
			Limit: limit,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeCSV(w, r, res, SanitizeFilename(r.FormValue("filename"), route.defaultName))
	}
}

func (s *Server) filterCSV(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		writeError(w, r, err)
		return
	}

	tbl, err := readUpload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tbl == nil {
		writeError(w, r, model.Invalid("Upload a CSV"))
		return
	}

	res, err := s.svc.Profiles(r.Context(), discovery.ProfileRequest{
		Table: tbl,
		Query: strings.TrimSpace(r.FormValue("query")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeCSV(w, r, res, SanitizeFilename(r.FormValue("filename"), "filtered_profiles"))
}

// parseForm accepts multipart and urlencoded bodies up to the configured
// upload size.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	max := s.cfg.Limits.MaxUploadBytes
	if max <= 0 {
		max = 32 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, max)

	err := r.ParseMultipartForm(max)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.Invalid("Upload exceeds %d bytes", max)
		}
		return model.Invalid("Could not parse form: %v", err)
	}
	return nil
}

// parseLimit reads the limit field. Empty means the route default.
func parseLimit(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, model.Invalid("limit must be an integer")
	}
	if n < 1 {
		n = 1
	}
	return n, nil
}

// readUpload parses the optional uploaded table. No file, or a file part
// without a name, yields nil.
func readUpload(r *http.Request) (*table.Table, error) {
	file, header, err := r.FormFile(uploadField)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, model.Invalid("Could not read uploaded file: %v", err)
	}
	defer file.Close() //nolint:errcheck

	if header.Filename == "" {
		return nil, nil
	}
	tbl, err := table.Parse(header.Filename, file)
	if err != nil {
		return nil, model.Invalid("Could not read uploaded file: %v", err)
	}
	zap.L().Debug("upload parsed",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("filename", header.Filename),
		zap.Strings("columns", tbl.Header),
		zap.Int("rows", tbl.Len()),
	)
	return tbl, nil
}

// SanitizeFilename replaces every character that is not an ASCII letter or
// digit with '_'. An empty name falls back to def.
func SanitizeFilename(name, def string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = def
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func writeCSV(w http.ResponseWriter, r *http.Request, res *model.ExportResult, filename string) {
	schema, err := export.SchemaFor(res.Domain)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := export.Bytes(schema, res.Rows)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
	w.Header().Set(headerExportID, res.ID)
	if res.Truncated {
		w.Header().Set(headerTruncated, "true")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		zap.L().Warn("write CSV response", zap.String("export_id", res.ID), zap.Error(err))
	}
}

// writeError answers validation failures with 400 and the message, and
// anything else with 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if model.IsValidation(err) {
		var se *model.SchemaError
		if errors.As(err, &se) {
			zap.L().Info("upload missing required column",
				zap.String("path", r.URL.Path),
				zap.String("column", se.Column),
				zap.Strings("columns", se.Header),
			)
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(validationMessage(err))) //nolint:errcheck
		return
	}

	zap.L().Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte("Error processing request: " + err.Error())) //nolint:errcheck
}

// validationMessage returns the innermost validation message, without
// any wrapping context.
func validationMessage(err error) string {
	var se *model.SchemaError
	if errors.As(err, &se) {
		return se.Error()
	}
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return err.Error()
}
