// Package relay talks to the thin HTTP relay that forwards translation and
// usage requests to the provider with the user's own API key.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/famlink/internal/common"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultTranslatePath = "/translate"
	DefaultUsagePath     = "/usage"
)

// TranslateRequest is the body of POST {base}/translate.
type TranslateRequest struct {
	Text        string `json:"text"`
	SourceLang  string `json:"source_lang"`
	TargetLang  string `json:"target_lang"`
	APIKey      string `json:"apiKey"`
	TagHandling string `json:"tag_handling,omitempty"`
	IgnoreTags  string `json:"ignore_tags,omitempty"`
}

// Translation is one entry of the provider's answer.
type Translation struct {
	Text                   string `json:"text"`
	DetectedSourceLanguage string `json:"detected_source_language"`
}

type translateResponse struct {
	Translations []Translation `json:"translations"`
}

// Usage is the provider's character quota for a key.
type Usage struct {
	CharacterCount int64 `json:"character_count"`
	CharacterLimit int64 `json:"character_limit"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client is a relay client. It is safe for concurrent use.
type Client struct {
	http          *resty.Client
	baseURL       string
	timeout       time.Duration
	translatePath string
	usagePath     string
}

// Option configures a Client.
type Option func(*Client)

// WithPaths overrides the endpoint paths relative to the base URL.
func WithPaths(translatePath, usagePath string) Option {
	return func(c *Client) {
		if translatePath != "" {
			c.translatePath = translatePath
		}
		if usagePath != "" {
			c.usagePath = usagePath
		}
	}
}

// WithHTTPClient routes requests through hc (tests, proxies).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = resty.NewWithClient(hc).SetBaseURL(c.baseURL).SetTimeout(c.timeout)
	}
}

// New returns a client for the relay at baseURL. Every request is bounded
// by timeout; hitting it is reported as common.ErrServiceUnavailable.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	c := &Client{
		http:          resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		baseURL:       baseURL,
		timeout:       timeout,
		translatePath: DefaultTranslatePath,
		usagePath:     DefaultUsagePath,
	}
	for _, o := range opts {
		o(c)
	}
	c.http.SetHeader("Content-Type", "application/json")
	return c
}

// Translate sends one text to the relay and returns the first translation.
func (c *Client) Translate(ctx context.Context, req TranslateRequest) (*Translation, error) {
	var out translateResponse
	if err := c.post(ctx, c.translatePath, req, &out); err != nil {
		return nil, err
	}
	if len(out.Translations) == 0 {
		return nil, &common.ProviderError{Kind: common.Other, Status: http.StatusOK, Message: "empty translation response"}
	}
	return &out.Translations[0], nil
}

// Usage queries the character quota of apiKey.
func (c *Client) Usage(ctx context.Context, apiKey string) (*Usage, error) {
	var out Usage
	if err := c.post(ctx, c.usagePath, map[string]string{"apiKey": apiKey}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post(path)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrServiceUnavailable, err)
	}
	if !resp.IsSuccess() {
		return providerError(resp.StatusCode(), resp.Status(), resp.Body())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &common.ProviderError{Kind: common.Other, Status: resp.StatusCode(), Message: "invalid relay response: " + err.Error()}
	}
	return nil
}

func providerError(code int, status string, body []byte) *common.ProviderError {
	msg := status
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case eb.Error != "":
			msg = eb.Error
		case eb.Message != "":
			msg = eb.Message
		}
	} else if s := strings.TrimSpace(string(body)); s != "" {
		msg = s
	}
	return &common.ProviderError{Kind: common.KindForStatus(code), Status: code, Message: msg}
}
