package ai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"os"
	"strings"

	"google.golang.org/genai"
)

var (
	// ErrAIRequestFailed covers network, quota and upstream failures.
	ErrAIRequestFailed = errors.New("AI request failed")

	// ErrAISchemaValidation means a structured response did not have the
	// expected shape.
	ErrAISchemaValidation = errors.New("AI response failed schema validation")

	ErrMissingParam = errors.New("missing parameter")
	ErrUnknownOp    = errors.New("unknown AI operation")
)

// SchemaError carries the operation and the parse or validation failure.
type SchemaError struct {
	Op  string
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrAISchemaValidation, e.Err)
}

func (e *SchemaError) Unwrap() []error {
	return []error{ErrAISchemaValidation, e.Err}
}

// Image is an inline image sent with a prompt.
type Image struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mime_type"`
}

// LoadImage reads an image file and sniffs its MIME type.
func LoadImage(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, err
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return Image{}, fmt.Errorf("%s is not an image (%s)", path, mime)
	}
	return Image{Data: data, MIMEType: mime}, nil
}

// Request is one prompt to the model.
type Request struct {
	Prompt string
	Images []Image
	// Schema, when set, asks for a JSON response of that shape.
	Schema *genai.Schema
	// Grounded enables web search grounding.
	Grounded bool
}

// Source is a web page the model grounded its answer on.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

type Response struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources,omitempty"`
}

// Generator is the generative model. Stream yields text chunks in order and
// is finite and not restartable; a consumer stops it by breaking out of the
// range loop. Errors from either method wrap ErrAIRequestFailed.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
	Stream(ctx context.Context, req Request) iter.Seq2[string, error]
}

// Collect drains a stream into one string.
func Collect(seq iter.Seq2[string, error]) (string, error) {
	var b strings.Builder
	for chunk, err := range seq {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(chunk)
	}
	return b.String(), nil
}
