package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cognicore/textprep/pkg/textprep/internalerr"
)

// Remote calls an external annotation server over HTTP. The server owns
// the model weights; this client only ships texts and reads back tokens
// and vectors.
type Remote struct {
	BaseURL string
	Model   string

	HTTPClient *http.Client

	name string
	dims int
}

// NewRemote builds a client for one remote model variant.
func NewRemote(name string, dims int, baseURL, model string) *Remote {
	return &Remote{
		BaseURL: baseURL,
		Model:   model,
		name:    name,
		dims:    dims,
	}
}

func (c *Remote) Name() string { return c.name }

func (c *Remote) Dims() int { return c.dims }

type annotateRequest struct {
	Model string   `json:"model"`
	Texts []string `json:"texts"`
}

type wireToken struct {
	Text  string `json:"text"`
	Lemma string `json:"lemma"`
	Stop  bool   `json:"stop"`
	Punct bool   `json:"punct"`
	POS   string `json:"pos"`
}

type wireDoc struct {
	Tokens []wireToken `json:"tokens"`
	Vector []float64   `json:"vector"`
}

type annotateResponse struct {
	Docs  []wireDoc `json:"docs"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Annotate annotates a single text.
func (c *Remote) Annotate(ctx context.Context, text string) (*Doc, error) {
	docs, err := c.AnnotateBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return docs[0], nil
}

// AnnotateBatch ships a window of texts in one request. The server must
// return one doc per text, in order.
func (c *Remote) AnnotateBatch(ctx context.Context, texts []string) ([]*Doc, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("annotate: base URL required: %w", internalerr.ErrInvalidConfig)
	}
	payload, err := c.send(ctx, annotateRequest{Model: c.Model, Texts: texts})
	if err != nil {
		return nil, err
	}
	if len(payload.Docs) != len(texts) {
		return nil, fmt.Errorf("annotate: got %d docs for %d texts: %w",
			len(payload.Docs), len(texts), internalerr.ErrPipeline)
	}

	docs := make([]*Doc, len(payload.Docs))
	for i, wd := range payload.Docs {
		tokens := make([]Token, len(wd.Tokens))
		for j, wt := range wd.Tokens {
			tokens[j] = Token{
				Text:    wt.Text,
				Lemma:   wt.Lemma,
				IsStop:  wt.Stop,
				IsPunct: wt.Punct,
				POS:     wt.POS,
			}
		}
		docs[i] = &Doc{Tokens: tokens, Vector: wd.Vector}
	}
	return docs, nil
}

func (c *Remote) send(ctx context.Context, reqPayload annotateRequest) (*annotateResponse, error) {
	reqBody, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("annotate: HTTP %d: %w", resp.StatusCode, internalerr.ErrPipeline)
	}
	var payload annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("annotate: %s: %w", payload.Error.Message, internalerr.ErrPipeline)
	}
	return &payload, nil
}

func (c *Remote) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	// Model inference is slow; leave room for large windows.
	return &http.Client{Timeout: 5 * time.Minute}
}
