package server_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-extractor/internal/model"
	"github.com/rezonia/einvoice-extractor/internal/parser/pdf/pdftest"
	"github.com/rezonia/einvoice-extractor/internal/server"
)

func newTestServer() *server.Server {
	config := &server.Config{
		Address: ":8080",
		Debug:   true,
	}
	return server.NewServer(config)
}

func readTestFile(t testing.TB, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func do(srv *server.Server, method, target string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

type extractResponse struct {
	Mode     string          `json:"mode"`
	Source   string          `json:"source"`
	FileName string          `json:"filename"`
	Invoice  *model.EInvoice `json:"invoice"`
	Tree     map[string]any  `json:"tree"`
	Raw      *struct {
		XML      string `json:"xml"`
		FileName string `json:"filename"`
		Encoding string `json:"encoding"`
	} `json:"raw"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer()

	w := do(srv, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	response := decode[map[string]any](t, w)
	assert.Equal(t, "ok", response["status"])
	assert.NotEmpty(t, response["time"])
	assert.NotEmpty(t, w.Header().Get(server.RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	w := do(newTestServer(), http.MethodGet, "/health", nil, map[string]string{server.RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(server.RequestIDHeader))
}

func TestExtractXMLEndpoint(t *testing.T) {
	srv := newTestServer()

	w := do(srv, http.MethodPost, "/api/v1/extract/xml", readTestFile(t, "factur-x-en16931.xml"),
		map[string]string{"Content-Type": "application/xml"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	response := decode[extractResponse](t, w)
	assert.Equal(t, "simple", response.Mode)
	assert.Equal(t, "xml", response.Source)
	require.NotNil(t, response.Invoice)
	assert.Equal(t, "471102", response.Invoice.DocumentID)
	assert.Equal(t, "Kunden AG Mitte", response.Invoice.Buyer.BuyerName)
}

func TestExtractXMLEndpoint_Modes(t *testing.T) {
	srv := newTestServer()
	body := readTestFile(t, "factur-x-en16931.xml")

	w := do(srv, http.MethodPost, "/api/v1/extract/xml?returnRawJSON=true", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	response := decode[extractResponse](t, w)
	assert.Equal(t, "json", response.Mode)
	assert.Contains(t, response.Tree, "CrossIndustryInvoice")

	w = do(srv, http.MethodPost, "/api/v1/extract/xml?returnRawJSON=true&returnRawXML=true&filename=in.xml", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	response = decode[extractResponse](t, w)
	assert.Equal(t, "xml", response.Mode)
	require.NotNil(t, response.Raw)
	assert.Equal(t, string(body), response.Raw.XML)
	assert.Equal(t, "in.xml", response.Raw.FileName)

	w = do(srv, http.MethodPost, "/api/v1/extract/xml?mode=json", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "json", decode[extractResponse](t, w).Mode)

	w = do(srv, http.MethodPost, "/api/v1/extract/xml?mode=pdf", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(srv, http.MethodPost, "/api/v1/extract/xml?returnRawXML=maybe", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractXMLEndpoint_EmptyBody(t *testing.T) {
	w := do(newTestServer(), http.MethodPost, "/api/v1/extract/xml", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractXMLEndpoint_ExtractionErrors(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		name string
		body string
		code model.ErrorCode
	}{
		{"malformed", "<rsm:CrossIndustryInvoice><unclosed>", model.ErrCodeMalformedXML},
		{"not cii", `<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"/>`, model.ErrCodeMissingRootElement},
		{"no profile", `<rsm:CrossIndustryInvoice xmlns:rsm="urn:rsm"/>`, model.ErrCodeMissingProfileIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(srv, http.MethodPost, "/api/v1/extract/xml", []byte(tt.body), nil)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

			response := decode[server.ErrorResponse](t, w)
			assert.Equal(t, tt.code, response.Code)
			assert.NotEmpty(t, response.Error)
		})
	}
}

func TestExtractPDFEndpoint(t *testing.T) {
	srv := newTestServer()
	xmlData := readTestFile(t, "factur-x-en16931.xml")
	pdfData := pdftest.Build(pdftest.File{Key: "zugferd-invoice.xml", Content: xmlData})

	w := do(srv, http.MethodPost, "/api/v1/extract/pdf", pdfData, map[string]string{"Content-Type": "application/pdf"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	response := decode[extractResponse](t, w)
	assert.Equal(t, "pdf", response.Source)
	assert.Equal(t, "zugferd-invoice.xml", response.FileName)
	require.NotNil(t, response.Invoice)
	assert.Equal(t, "EUR", response.Invoice.Transaction.Currency)

	w = do(srv, http.MethodPost, "/api/v1/extract/pdf?returnRawXML=true", pdfData, nil)
	require.Equal(t, http.StatusOK, w.Code)
	response = decode[extractResponse](t, w)
	require.NotNil(t, response.Raw)
	assert.Equal(t, "base64", response.Raw.Encoding)
	decoded, err := base64.StdEncoding.DecodeString(response.Raw.XML)
	require.NoError(t, err)
	assert.Equal(t, xmlData, decoded)
}

func TestExtractPDFEndpoint_Errors(t *testing.T) {
	srv := newTestServer()

	w := do(srv, http.MethodPost, "/api/v1/extract/pdf", []byte("not a pdf"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, model.ErrCodePDFOpen, decode[server.ErrorResponse](t, w).Code)

	noInvoice := pdftest.Build(pdftest.File{Key: "readme.txt", Content: []byte("hi")})
	w = do(srv, http.MethodPost, "/api/v1/extract/pdf", noInvoice, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, model.ErrCodeAttachmentNotFound, decode[server.ErrorResponse](t, w).Code)
}

func TestExtractPDFEndpoint_Password(t *testing.T) {
	srv := newTestServer()
	plain := pdftest.Build(pdftest.File{Key: "factur-x.xml", Content: readTestFile(t, "factur-x-en16931.xml")})
	encrypted, err := pdftest.Encrypt(plain, "s3cret")
	require.NoError(t, err)

	w := do(srv, http.MethodPost, "/api/v1/extract/pdf", encrypted, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, model.ErrCodePDFOpen, decode[server.ErrorResponse](t, w).Code)

	w = do(srv, http.MethodPost, "/api/v1/extract/pdf", encrypted, map[string]string{server.PasswordHeader: "s3cret"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(srv, http.MethodPost, "/api/v1/extract/pdf?password=s3cret", encrypted, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestExtractAutoEndpoint(t *testing.T) {
	srv := newTestServer()
	xmlData := readTestFile(t, "factur-x-en16931.xml")

	w := do(srv, http.MethodPost, "/api/v1/extract/auto", xmlData, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "xml", decode[extractResponse](t, w).Source)

	w = do(srv, http.MethodPost, "/api/v1/extract/auto", pdftest.Build(pdftest.File{Key: "factur-x.xml", Content: xmlData}), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pdf", decode[extractResponse](t, w).Source)

	w = do(srv, http.MethodPost, "/api/v1/extract/auto", []byte("plain text"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartBody(t *testing.T, files map[string][]byte, order []string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range order {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestExtractBatchEndpoint(t *testing.T) {
	srv := newTestServer()
	xmlData := readTestFile(t, "factur-x-en16931.xml")

	files := map[string][]byte{
		"a.xml": xmlData,
		"b.pdf": pdftest.Build(pdftest.File{Key: "factur-x.xml", Content: xmlData}),
		"c.xml": []byte("<broken"),
	}
	body, contentType := multipartBody(t, files, []string{"a.xml", "b.pdf", "c.xml"})

	w := do(srv, http.MethodPost, "/api/v1/extract/batch", body.Bytes(), map[string]string{"Content-Type": contentType})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	response := decode[server.BatchResponse](t, w)
	assert.Equal(t, 2, response.Succeeded)
	assert.Equal(t, 1, response.Failed)
	require.Len(t, response.Items, 3)

	for i, item := range response.Items {
		assert.Equal(t, i, item.Index)
	}
	assert.Equal(t, "b.pdf", response.Items[1].File)
	assert.NotNil(t, response.Items[1].Result)
	assert.Equal(t, model.ErrCodeMalformedXML, response.Items[2].Code)
	assert.Nil(t, response.Items[2].Result)
}

func TestExtractBatchEndpoint_FailFast(t *testing.T) {
	srv := newTestServer()
	body, contentType := multipartBody(t, map[string][]byte{"c.xml": []byte("<broken")}, []string{"c.xml"})

	w := do(srv, http.MethodPost, "/api/v1/extract/batch?continueOnFail=false", body.Bytes(), map[string]string{"Content-Type": contentType})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, model.ErrCodeMalformedXML, decode[server.ErrorResponse](t, w).Code)
}

func TestExtractBatchEndpoint_NoFiles(t *testing.T) {
	w := do(newTestServer(), http.MethodPost, "/api/v1/extract/batch", []byte("x"), map[string]string{"Content-Type": "text/plain"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInfoEndpoint(t *testing.T) {
	srv := newTestServer()
	pdfData := pdftest.Build(pdftest.File{Key: "factur-x.xml", Content: readTestFile(t, "factur-x-en16931.xml")})

	w := do(srv, http.MethodPost, "/api/v1/info", pdfData, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	response := decode[map[string]any](t, w)
	assert.Equal(t, "pdf", response["format"])
	assert.Equal(t, "application/pdf", response["mime"])
	assert.Equal(t, float64(len(pdfData)), response["size"])
	assert.Equal(t, "en16931", response["profile"])
	assert.Len(t, response["attachments"], 1)
}

func TestBodyLimit(t *testing.T) {
	srv := server.NewServer(&server.Config{MaxBodyBytes: 16})

	w := do(srv, http.MethodPost, "/api/v1/extract/xml", bytes.Repeat([]byte("a"), 64), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRateLimit(t *testing.T) {
	srv := server.NewServer(&server.Config{RateLimitEvery: time.Hour, RateLimitBurst: 2})

	for i := 0; i < 2; i++ {
		w := do(srv, http.MethodPost, "/api/v1/extract/xml", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	w := do(srv, http.MethodPost, "/api/v1/extract/xml", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// health is not rate limited
	w = do(srv, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func BenchmarkExtractXML(b *testing.B) {
	srv := server.NewServer(&server.Config{RateLimitEvery: time.Nanosecond, RateLimitBurst: 1 << 20})
	body := readTestFile(b, "factur-x-en16931.xml")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/extract/xml", bytes.NewReader(body))
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
	}
}

func BenchmarkHealth(b *testing.B) {
	srv := newTestServer()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
	}
}
