package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdfPkg "minpdf/pdf"
)

type upload struct {
	field, name string
	data        []byte
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// testPDF returns a document with one image page per width, each 8 px tall.
func testPDF(t *testing.T, widths ...int) []byte {
	t.Helper()
	parts := make([][]byte, len(widths))
	for i, w := range widths {
		data, err := pdfPkg.ConvertImage(jpegBytes(t, w, 8))
		require.NoError(t, err)
		parts[i] = data
	}
	var buf bytes.Buffer
	require.NoError(t, pdfPkg.Concat(&buf, parts...))
	return buf.Bytes()
}

// widthsOf returns the media box width of every page, in image pixels.
func widthsOf(t *testing.T, data []byte) []int {
	t.Helper()
	doc, err := pdfPkg.ParseDocument(data)
	require.NoError(t, err)
	widths := make([]int, doc.PageCount())
	for i := range widths {
		p, err := doc.Page(i + 1)
		require.NoError(t, err)
		widths[i] = int(p.MediaBox().Width*pdfPkg.ReferenceDPI/pdfPkg.UnitsPerInch + 0.5)
	}
	return widths
}

func testConfig(t *testing.T) *Config {
	return &Config{
		MaxFileSize: 10 << 20,
		UploadDir:   t.TempDir(),
		ImagePage:   pdfPkg.DefaultImagePageOptions(),
		Reencode:    pdfPkg.ReencodeOptions{},
	}
}

func newRouter(config *Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupRoutes(r, config)
	return r
}

func postForm(t *testing.T, r http.Handler, path string, fields map[string]string, files ...upload) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = w.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealth(t *testing.T) {
	r := newRouter(testConfig(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"minpdf"}`, rec.Body.String())

	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestRequestIDIsReused(t *testing.T) {
	r := newRouter(testConfig(t))
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}

func TestPick(t *testing.T) {
	r := newRouter(testConfig(t))
	src := testPDF(t, 8, 16, 24)

	rec := postForm(t, r, "/api/pdf/pick", map[string]string{"pages": "3,1"}, upload{"pdf", "src.pdf", src})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `"src_picked.pdf"`)
	assert.Equal(t, []int{24, 8}, widthsOf(t, rec.Body.Bytes()))
}

func TestPickAppendsAndReplaces(t *testing.T) {
	r := newRouter(testConfig(t))
	src := testPDF(t, 8, 16)
	dest := testPDF(t, 40)

	rec := postForm(t, r, "/api/pdf/pick", map[string]string{"pages": "2"},
		upload{"pdf", "src.pdf", src}, upload{"dest", "dest.pdf", dest})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []int{40, 16}, widthsOf(t, rec.Body.Bytes()))

	rec = postForm(t, r, "/api/pdf/pick", map[string]string{"pages": "2", "replace": "true"},
		upload{"pdf", "src.pdf", src}, upload{"dest", "dest.pdf", dest})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []int{16}, widthsOf(t, rec.Body.Bytes()))
}

func TestPickErrors(t *testing.T) {
	r := newRouter(testConfig(t))
	src := testPDF(t, 8, 16)

	rec := postForm(t, r, "/api/pdf/pick", nil, upload{"pdf", "src.pdf", src})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postForm(t, r, "/api/pdf/pick", map[string]string{"pages": "3"}, upload{"pdf", "src.pdf", src})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "exceeds total pages")

	rec = postForm(t, r, "/api/pdf/pick", map[string]string{"pages": "1-2000000000"}, upload{"pdf", "src.pdf", src})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "exceeds total pages")

	rec = postForm(t, r, "/api/pdf/pick", map[string]string{"pages": "2-1"}, upload{"pdf", "src.pdf", src})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postForm(t, r, "/api/pdf/pick", map[string]string{"pages": "1"}, upload{"pdf", "src.pdf", []byte("plain text, not a PDF")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "expected one of application/pdf")

	rec = postForm(t, r, "/api/pdf/pick", map[string]string{"pages": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChain(t *testing.T) {
	r := newRouter(testConfig(t))

	rec := postForm(t, r, "/api/pdf/chain", map[string]string{"stem": "Scan"},
		upload{"pdfs", "Scan (2).pdf", testPDF(t, 24)},
		upload{"pdfs", "Scan.pdf", testPDF(t, 8)},
		upload{"pdfs", "Scan (1).pdf", testPDF(t, 16)},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `"n.pdf"`)
	assert.Equal(t, []int{8, 16, 24}, widthsOf(t, rec.Body.Bytes()))
}

func TestChainErrors(t *testing.T) {
	r := newRouter(testConfig(t))

	rec := postForm(t, r, "/api/pdf/chain", nil, upload{"pdfs", "Scan.pdf", testPDF(t, 8)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postForm(t, r, "/api/pdf/chain", map[string]string{"stem": "Scan"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = postForm(t, r, "/api/pdf/chain", map[string]string{"stem": "Scan"},
		upload{"pdfs", "Scan.pdf", testPDF(t, 8, 16)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postForm(t, r, "/api/pdf/chain", map[string]string{"stem": "Scan"},
		upload{"pdfs", "Scan (1).pdf", testPDF(t, 8)},
		upload{"pdfs", "Scan(1).pdf", testPDF(t, 16)},
	)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImagePage(t *testing.T) {
	r := newRouter(testConfig(t))
	img := jpegBytes(t, 60, 90)

	rec := postForm(t, r, "/api/pdf/image-page", map[string]string{"dpi": "15"}, upload{"image", "Scan (3).jpg", img})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `"Scan (3).pdf"`)

	doc, err := pdfPkg.ParseDocument(rec.Body.Bytes())
	require.NoError(t, err)
	page, err := doc.Page(1)
	require.NoError(t, err)
	assert.Equal(t, pdfPkg.Letter, page.MediaBox())

	rec = postForm(t, r, "/api/pdf/image-page", map[string]string{"dpi": "15", "page_size": "legal"}, upload{"image", "Scan.jpg", img})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc, err = pdfPkg.ParseDocument(rec.Body.Bytes())
	require.NoError(t, err)
	page, err = doc.Page(1)
	require.NoError(t, err)
	assert.Equal(t, pdfPkg.Legal, page.MediaBox())
}

func TestImagePageErrors(t *testing.T) {
	r := newRouter(testConfig(t))
	img := jpegBytes(t, 8, 8)

	for _, fields := range []map[string]string{
		{"dpi": "fast"},
		{"dpi": "0"},
		{"reduction": "0"},
		{"page_size": "tabloid"},
	} {
		rec := postForm(t, r, "/api/pdf/image-page", fields, upload{"image", "Scan.jpg", img})
		assert.Equal(t, http.StatusBadRequest, rec.Code, fields)
	}

	rec := postForm(t, r, "/api/pdf/image-page", nil, upload{"image", "Scan.pdf", testPDF(t, 8)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJPEG(t *testing.T) {
	r := newRouter(testConfig(t))

	rec := postForm(t, r, "/api/pdf/jpeg", map[string]string{"quality": "40"}, upload{"pdf", "scan.pdf", testPDF(t, 16, 8)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `"scan_jpeg.pdf"`)

	doc, err := pdfPkg.ParseDocument(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, doc.PageCount())

	rec = postForm(t, r, "/api/pdf/jpeg", map[string]string{"quality": "high"}, upload{"pdf", "scan.pdf", testPDF(t, 8)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemovePagesAndResave(t *testing.T) {
	config := testConfig(t)
	config.Optimize = true
	r := newRouter(config)
	src := testPDF(t, 8, 16, 24)

	rec := postForm(t, r, "/api/pdf/remove-pages", map[string]string{"pages": "2"}, upload{"pdf", "doc.pdf", src})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `"doc_pages_removed.pdf"`)
	assert.Equal(t, []int{8, 24}, widthsOf(t, rec.Body.Bytes()))

	rec = postForm(t, r, "/api/pdf/remove-pages", nil, upload{"pdf", "doc.pdf", src})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postForm(t, r, "/api/pdf/resave", nil, upload{"pdf", "doc.pdf", src})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []int{8, 16, 24}, widthsOf(t, rec.Body.Bytes()))
}

func TestUpload(t *testing.T) {
	config := testConfig(t)
	r := newRouter(config)

	img := jpegBytes(t, 8, 8)

	// A renamed copy written while the upload was in flight.
	later := time.Now().Add(time.Hour)
	dup := filepath.Join(config.UploadDir, "Scan (1).jpg")
	require.NoError(t, os.WriteFile(dup, img, 0o644))
	require.NoError(t, os.Chtimes(dup, later, later))
	// A different scan uploaded concurrently under a numbered name.
	other := filepath.Join(config.UploadDir, "Scan (3).jpg")
	require.NoError(t, os.WriteFile(other, jpegBytes(t, 16, 16), 0o644))
	require.NoError(t, os.Chtimes(other, later, later))
	// An older scan of the same group.
	older := filepath.Join(config.UploadDir, "Scan (2).jpg")
	require.NoError(t, os.WriteFile(older, []byte("old"), 0o644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	rec := postForm(t, r, "/api/pdf/upload", nil, upload{"file", "Scan.jpg", img})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Filename string   `json:"filename"`
		Removed  []string `json:"removed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Scan.jpg", body.Filename)
	assert.Equal(t, []string{"Scan (1).jpg"}, body.Removed)

	stored, err := os.ReadFile(filepath.Join(config.UploadDir, "Scan.jpg"))
	require.NoError(t, err)
	assert.Equal(t, img, stored)

	_, err = os.Stat(dup)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = os.Stat(older)
	assert.NoError(t, err)
	_, err = os.Stat(other)
	assert.NoError(t, err)
}

func TestUploadLimits(t *testing.T) {
	config := testConfig(t)
	config.MaxFileSize = 64
	r := newRouter(config)

	rec := postForm(t, r, "/api/pdf/upload", nil, upload{"file", "Scan.jpg", jpegBytes(t, 32, 32)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "exceeds maximum")

	config.MaxFileSize = 10 << 20
	rec = postForm(t, r, "/api/pdf/upload", nil, upload{"file", "notes.txt", []byte("hello")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newRouter(testConfig(t))

	rec := postForm(t, r, "/api/pdf/resave", nil, upload{"pdf", "doc.pdf", testPDF(t, 8)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `minpdf_operations_total{op="resave",result="success"}`)
	assert.Contains(t, rec.Body.String(), `minpdf_pages_written_total{op="resave"}`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", errBadUpload), http.StatusBadRequest},
		{fmt.Errorf("x: %w", pdfPkg.ErrParse), http.StatusBadRequest},
		{fmt.Errorf("x: %w", pdfPkg.ErrIndexOutOfRange), http.StatusBadRequest},
		{pdfPkg.ErrDuplicateKey, http.StatusBadRequest},
		{pdfPkg.ErrNotSinglePage, http.StatusBadRequest},
		{pdfPkg.ErrInvalidResolution, http.StatusBadRequest},
		{pdfPkg.ErrNoImage, http.StatusBadRequest},
		{pdfPkg.ErrFileNotFound, http.StatusNotFound},
		{fmt.Errorf("read: %w", fs.ErrNotExist), http.StatusNotFound},
		{pdfPkg.ErrDestinationExists, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "scan_picked.pdf", outputName("scan.pdf", "picked"))
	assert.Equal(t, "Scan (2).pdf", outputName("Scan (2).jpg", ""))
	assert.Equal(t, "document_jpeg.pdf", outputName("", "jpeg"))
	assert.Equal(t, "_etc_passwd_resaved.pdf", outputName("../etc/passwd", "resaved"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Scan.jpg", sanitizeFilename("Scan.jpg"))
	assert.Equal(t, "_Scan.jpg", sanitizeFilename("../Scan.jpg"))
	assert.Equal(t, "a_b.pdf", sanitizeFilename(`a\b.pdf`))
	assert.Equal(t, "document.pdf", sanitizeFilename("  "))
}
