package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"minpdf/metrics"
	pdfPkg "minpdf/pdf"
	"minpdf/storage"
)

// errBadUpload marks problems with the uploaded file itself.
var errBadUpload = errors.New("invalid upload")

// statusFor maps operation errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadUpload),
		errors.Is(err, pdfPkg.ErrParse),
		errors.Is(err, pdfPkg.ErrIndexOutOfRange),
		errors.Is(err, pdfPkg.ErrDuplicateKey),
		errors.Is(err, pdfPkg.ErrNotSinglePage),
		errors.Is(err, pdfPkg.ErrInvalidResolution),
		errors.Is(err, pdfPkg.ErrNoImage):
		return http.StatusBadRequest
	case errors.Is(err, pdfPkg.ErrFileNotFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, pdfPkg.ErrDestinationExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	event := log.Warn()
	if status == http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("request_id", c.GetString(requestIDKey)).Str("op", op).Msg("PDF operation error")

	// Truncate long error messages but include key info
	errorMsg := err.Error()
	if len(errorMsg) > MaxErrorMessageLength {
		errorMsg = errorMsg[:MaxErrorMessageLength] + "..."
	}
	c.JSON(status, gin.H{"error": errorMsg})
}

// HandleUpload stores an upload under its own name in the upload directory,
// replacing any earlier file of that name, and removes the "name (N)" copies
// that appeared while it was being received.
func HandleUpload(c *gin.Context, config *Config) {
	start := time.Now()

	data, header, err := readUpload(c, "file", config.MaxFileSize, uploadTypes)
	if err != nil {
		respondError(c, "upload", err)
		return
	}

	if err := os.MkdirAll(config.UploadDir, DefaultFilePermissions); err != nil {
		respondError(c, "upload", fmt.Errorf("failed to create upload directory: %w", err))
		return
	}

	// Sanitize filename to prevent path traversal
	name := sanitizeFilename(header.Filename)
	path := filepath.Join(config.UploadDir, name)
	if err := (storage.Local{}).Put(c.Request.Context(), path, data); err != nil {
		respondError(c, "upload", err)
		return
	}

	removed, err := pdfPkg.CleanDuplicates(config.UploadDir, name, start)
	if err != nil {
		respondError(c, "upload", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"filename": name, "path": path, "removed": removed})
}

func HandleResave(c *gin.Context, config *Config) {
	handlePDFFile(c, config, "resave", pdfPkg.Resave, "resaved")
}

func HandleRemovePages(c *gin.Context, config *Config) {
	pagesParam := c.PostForm("pages")
	if pagesParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No pages specified"})
		return
	}

	handlePDFFile(c, config, "remove_pages", func(src []byte) ([]byte, error) {
		return pdfPkg.RemovePages(src, pagesParam)
	}, "pages_removed")
}

// HandlePick copies pages out of "pdf" onto the end of the optional "dest" upload.
func HandlePick(c *gin.Context, config *Config) {
	pagesParam := c.PostForm("pages")
	if pagesParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No pages specified"})
		return
	}

	var dst []byte
	if _, err := c.FormFile("dest"); err == nil {
		dst, _, err = readUpload(c, "dest", config.MaxFileSize, pdfTypes)
		if err != nil {
			respondError(c, "pick", err)
			return
		}
	}
	opts := pdfPkg.PickOptions{Replace: parseBool(c.PostForm("replace"))}

	handlePDFFile(c, config, "pick", func(src []byte) ([]byte, error) {
		return pdfPkg.PickPages(src, pagesParam, dst, opts)
	}, "picked")
}

func HandleJPEG(c *gin.Context, config *Config) {
	opts := config.Reencode
	if q, ok, err := formInt(c, "quality"); err != nil {
		respondError(c, "jpeg", err)
		return
	} else if ok {
		opts.Quality = q
	}

	handlePDFFile(c, config, "jpeg", func(src []byte) ([]byte, error) {
		return pdfPkg.ReencodeJPEG(src, opts)
	}, "jpeg")
}

// HandleImagePage turns an uploaded scan into a single page of true size.
func HandleImagePage(c *gin.Context, config *Config) {
	opts, err := imagePageOptions(c, config.ImagePage)
	if err != nil {
		respondError(c, "image_page", err)
		return
	}

	data, header, err := readUpload(c, "image", config.MaxFileSize, imageTypes)
	if err != nil {
		respondError(c, "image_page", err)
		return
	}

	out, err := run(c.Request.Context(), config, "image_page", func() ([]byte, error) {
		return pdfPkg.ImagePage(data, opts)
	})
	if err != nil {
		respondError(c, "image_page", err)
		return
	}
	sendPDF(c, out, outputName(header.Filename, ""))
}

// HandleChain concatenates the uploaded "pdfs" of one scan group in key order.
func HandleChain(c *gin.Context, config *Config) {
	stem := c.PostForm("stem")
	if stem == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No stem specified"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File["pdfs"]) == 0 {
		respondError(c, "chain", fmt.Errorf("%w: no PDF files provided", pdfPkg.ErrFileNotFound))
		return
	}

	files := make(map[string][]byte)
	var names []string
	for _, header := range form.File["pdfs"] {
		data, err := readFileHeader(header, config.MaxFileSize, pdfTypes)
		if err != nil {
			respondError(c, "chain", err)
			return
		}
		name := sanitizeFilename(header.Filename)
		files[name] = data
		names = append(names, name)
	}

	out, err := run(c.Request.Context(), config, "chain", func() ([]byte, error) {
		return pdfPkg.ChainFiles(names, stem, func(name string) ([]byte, error) {
			return files[name], nil
		})
	})
	if err != nil {
		respondError(c, "chain", err)
		return
	}
	sendPDF(c, out, pdfPkg.ChainOutputName)
}

func handlePDFFile(c *gin.Context, config *Config, op string, operation func([]byte) ([]byte, error), suffix string) {
	src, header, err := readUpload(c, "pdf", config.MaxFileSize, pdfTypes)
	if err != nil {
		respondError(c, op, err)
		return
	}

	out, err := run(c.Request.Context(), config, op, func() ([]byte, error) {
		return operation(src)
	})
	if err != nil {
		respondError(c, op, err)
		return
	}

	sendPDF(c, out, outputName(header.Filename, suffix))
}

// run times an operation, optionally optimizes its result and records both.
func run(ctx context.Context, config *Config, op string, operation func() ([]byte, error)) ([]byte, error) {
	start := time.Now()
	out, err := operation()
	if err == nil && config.Optimize {
		out, err = pdfPkg.Resave(out)
	}
	metrics.Observe(op, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if pages, countErr := pdfPkg.CountPages(out); countErr == nil {
		metrics.AddOutput(op, pages, len(out))
	}
	return out, nil
}

func sendPDF(c *gin.Context, data []byte, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// outputName derives the download name from the uploaded file's name.
func outputName(original, suffix string) string {
	base := strings.TrimSuffix(original, filepath.Ext(original))
	if base == "" {
		base = "document"
	}
	if suffix != "" {
		base += "_" + suffix
	}
	return sanitizeFilename(base + pdfPkg.DocumentExt)
}

func imagePageOptions(c *gin.Context, opts pdfPkg.ImagePageOptions) (pdfPkg.ImagePageOptions, error) {
	for field, dst := range map[string]*int{"dpi": &opts.DPI, "reduction": &opts.Reduction, "quality": &opts.Quality} {
		v, ok, err := formInt(c, field)
		if err != nil {
			return opts, err
		}
		if ok {
			*dst = v
		}
	}
	if name := c.PostForm("page_size"); name != "" {
		geom, err := pdfPkg.LookupPageSize(name)
		if err != nil {
			return opts, err
		}
		opts.Page = geom
	}
	return opts, nil
}

func formInt(c *gin.Context, field string) (int, bool, error) {
	s := c.PostForm(field)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s must be an integer, got %q", pdfPkg.ErrParse, field, s)
	}
	return v, true, nil
}

func parseBool(s string) bool {
	v, _ := strconv.ParseBool(s)
	return v
}

// readUpload reads a form file into memory after checking its size and type.
func readUpload(c *gin.Context, field string, maxSize int64, allowed []string) ([]byte, *multipart.FileHeader, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: no %q file provided", errBadUpload, field)
	}
	data, err := readFileHeader(header, maxSize, allowed)
	if err != nil {
		return nil, nil, err
	}
	return data, header, nil
}

func readFileHeader(header *multipart.FileHeader, maxSize int64, allowed []string) ([]byte, error) {
	if header.Size > maxSize {
		return nil, fmt.Errorf("%w: file size %d exceeds maximum allowed %d bytes", errBadUpload, header.Size, maxSize)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: file exceeds maximum allowed %d bytes", errBadUpload, maxSize)
	}

	mtype := mimetype.Detect(data)
	for _, want := range allowed {
		if mtype.Is(want) {
			return data, nil
		}
	}
	return nil, fmt.Errorf("%w: %s is %s, expected one of %s", errBadUpload, header.Filename, mtype.String(), strings.Join(allowed, ", "))
}

// sanitizeFilename removes path traversal attempts and dangerous characters
func sanitizeFilename(filename string) string {
	// Remove directory separators and path traversal attempts
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")

	// Get just the base filename to prevent path issues
	filename = filepath.Base(filename)

	// Remove any remaining dangerous characters
	filename = strings.TrimSpace(filename)

	// If empty after sanitization, use default
	if filename == "" || filename == "." {
		filename = "document.pdf"
	}

	return filename
}
