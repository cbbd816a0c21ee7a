package extract

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{"success":true,"data":{
  "path":{"name":"Go Basics","description":"d"},
  "modules":[{"title":"Intro","content":"<h2>A</h2><p>x</p>"}],
  "quizzes":[{"module_index":0,"title":"Q1","questions":[
    {"question_text":"2+2?","choices":["3","4"],"correct_answer":"4"}]}]}}`

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		msg  string
	}{
		{"not pdf", Request{FileName: "notes.docx", File: []byte("x")}, "Please select a PDF file"},
		{"empty file", Request{FileName: "notes.PDF"}, "Please select a PDF file first"},
		{"too big", Request{FileName: "a.pdf", File: make([]byte, MaxUploadBytes+1)}, "File size must be less than 10MB"},
		{"blank prompt", Request{Prompt: "   "}, "Please enter a description for the course you want to create"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(&tc.req)
			var ie *InputError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tc.msg, ie.Message)
		})
	}

	ok := Request{Prompt: "teach me go"}
	require.NoError(t, Validate(&ok))
	assert.Equal(t, DefaultModuleCount, ok.ModuleCount)
}

func TestExtractPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ExtractEndpoint, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "full", r.FormValue("extraction_type"))
		f, hdr, err := r.FormFile("pdf_file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "notes.pdf", hdr.Filename)
		assert.Equal(t, "%PDF", string(b))
		_, _ = w.Write([]byte(sampleDoc))
	}))
	defer srv.Close()

	doc, err := New(Config{BaseURL: srv.URL}).Extract(context.Background(),
		Request{FileName: "notes.pdf", File: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "Go Basics", doc.Path.Name)
	require.Len(t, doc.Quizzes, 1)
	assert.Equal(t, "4", doc.Quizzes[0].Questions[0].Choices[1].Text)
}

func TestGenerateFromPrompt(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, GenerateEndpoint, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(sampleDoc))
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL}).Extract(context.Background(),
		Request{Prompt: "go", IncludeQuizzes: true})
	require.NoError(t, err)
	assert.Equal(t, "go", got["prompt"])
	assert.EqualValues(t, DefaultModuleCount, got["module_count"])
	assert.Equal(t, true, got["include_quizzes"])
}

func TestExtractFailures(t *testing.T) {
	status, body := http.StatusOK, `{"success":false,"error":"no text layer"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()
	c := New(Config{BaseURL: srv.URL})
	ctx := context.Background()
	req := Request{Prompt: "go"}

	_, err := c.Extract(ctx, req)
	var ee *Error
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "no text layer", ee.Message)

	status, body = http.StatusBadGateway, `upstream down`
	_, err = c.Extract(ctx, req)
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "Failed to generate content", ee.Message)
	assert.Equal(t, http.StatusBadGateway, ee.Status)

	status, body = http.StatusBadRequest, `{"success":false,"error":"prompt too long"}`
	_, err = c.Extract(ctx, req)
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "prompt too long", ee.Message)
}
