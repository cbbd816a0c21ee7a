// Package extract talks to the extraction/generation service that turns an
// uploaded PDF or a free-text prompt into a content.Document.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-authoring/internal/content"
)

const (
	ExtractEndpoint  = "/learning/pdf-extractor/extract/"
	GenerateEndpoint = "/learning/pdf-extractor/generate_from_prompt/"

	MaxUploadBytes     = 10 << 20
	DefaultModuleCount = 5
)

type Extractor interface {
	Extract(ctx context.Context, req Request) (content.Document, error)
}

// Request is either a PDF upload (FileName set) or a prompt.
type Request struct {
	FileName string
	File     []byte

	Prompt         string
	ModuleCount    int
	IncludeQuizzes bool
}

func (r Request) IsUpload() bool { return r.FileName != "" || len(r.File) > 0 }

// InputError is a request rejected before any remote call.
type InputError struct{ Message string }

func (e *InputError) Error() string { return e.Message }

// Error is a failed or unsuccessful extraction call.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validate applies the upload and prompt rules and fills defaults.
func Validate(r *Request) error {
	if r.IsUpload() {
		switch {
		case !strings.HasSuffix(strings.ToLower(r.FileName), ".pdf"):
			return &InputError{Message: "Please select a PDF file"}
		case len(r.File) == 0:
			return &InputError{Message: "Please select a PDF file first"}
		case len(r.File) > MaxUploadBytes:
			return &InputError{Message: "File size must be less than 10MB"}
		}
		return nil
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return &InputError{Message: "Please enter a description for the course you want to create"}
	}
	if r.ModuleCount <= 0 {
		r.ModuleCount = DefaultModuleCount
	}
	return nil
}

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Client struct {
	base  string
	token string
	http  *http.Client
}

var _ Extractor = (*Client)(nil)

func New(cfg Config) *Client {
	h := &http.Client{}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &Client{base: strings.TrimRight(cfg.BaseURL, "/"), token: cfg.Token, http: h}
}

func (c *Client) Extract(ctx context.Context, r Request) (content.Document, error) {
	if err := Validate(&r); err != nil {
		return content.Document{}, err
	}
	if r.IsUpload() {
		return c.fromPDF(ctx, r)
	}
	return c.fromPrompt(ctx, r)
}

func (c *Client) fromPDF(ctx context.Context, r Request) (content.Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("pdf_file", r.FileName)
	if err != nil {
		return content.Document{}, err
	}
	if _, err := fw.Write(r.File); err != nil {
		return content.Document{}, err
	}
	if err := mw.WriteField("extraction_type", "full"); err != nil {
		return content.Document{}, err
	}
	if err := mw.Close(); err != nil {
		return content.Document{}, err
	}
	return c.post(ctx, ExtractEndpoint, mw.FormDataContentType(), &buf, "Failed to extract content from PDF")
}

func (c *Client) fromPrompt(ctx context.Context, r Request) (content.Document, error) {
	body, err := json.Marshal(map[string]any{
		"prompt":          r.Prompt,
		"module_count":    r.ModuleCount,
		"include_quizzes": r.IncludeQuizzes,
	})
	if err != nil {
		return content.Document{}, err
	}
	return c.post(ctx, GenerateEndpoint, "application/json", bytes.NewReader(body), "Failed to generate content")
}

type envelope struct {
	Success bool             `json:"success"`
	Data    content.Document `json:"data"`
	Error   string           `json:"error"`
}

func (c *Client) post(ctx context.Context, endpoint, contentType string, body io.Reader, fallback string) (content.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+endpoint, body)
	if err != nil {
		return content.Document{}, &Error{Message: fallback, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return content.Document{}, &Error{Message: fallback, Err: err}
	}
	defer res.Body.Close()

	var env envelope
	decErr := json.NewDecoder(res.Body).Decode(&env)
	if res.StatusCode/100 != 2 {
		msg := fallback
		if decErr == nil && env.Error != "" {
			msg = env.Error
		}
		return content.Document{}, &Error{Status: res.StatusCode, Message: msg, Err: errors.New(res.Status)}
	}
	if decErr != nil {
		return content.Document{}, &Error{Status: res.StatusCode, Message: fallback, Err: decErr}
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "Extraction failed"
		}
		return content.Document{}, &Error{Status: res.StatusCode, Message: msg}
	}
	return env.Data, nil
}
