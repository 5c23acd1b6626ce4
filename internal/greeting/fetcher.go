package greeting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultEndpoint is the greeting service path on the server.
	DefaultEndpoint = "/api/greeting"

	// ErrorMessage is shown on the surface whenever a greeting can't be obtained.
	ErrorMessage = "Error al obtener el saludo. Intenta de nuevo."

	nameParam = "name"
)

var (
	// ErrNoSurface is returned when Fetch is called without a display surface.
	ErrNoSurface = errors.New("no display surface")

	// ErrMalformedResponse is returned when a structured payload can't be read.
	ErrMalformedResponse = errors.New("malformed greeting response")
)

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Error en la respuesta del servidor (status %d)", e.StatusCode)
}

// Format selects how the response body is interpreted.
type Format string

const (
	// FormatText reads the body as the greeting itself.
	FormatText Format = "text"
	// FormatJSON reads the greeting from the "mensaje" field of a JSON object.
	FormatJSON Format = "json"
)

type jsonGreeting struct {
	Mensaje string `json:"mensaje"`
}

// Fetcher requests greetings from a server and renders them into a surface.
type Fetcher struct {
	baseURL  *url.URL
	endpoint string
	format   Format
	client   *http.Client
	logger   zerolog.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithEndpoint overrides the greeting path.
func WithEndpoint(path string) Option {
	return func(f *Fetcher) {
		f.endpoint = path
	}
}

// WithFormat selects the response format.
func WithFormat(format Format) Option {
	return func(f *Fetcher) {
		f.format = format
	}
}

// WithLogger sets the logger used for failure diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a fetcher for the server at baseURL.
func NewFetcher(baseURL string, opts ...Option) (*Fetcher, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: scheme and host are required", baseURL)
	}

	f := &Fetcher{
		baseURL:  base,
		endpoint: DefaultEndpoint,
		format:   FormatText,
		client:   http.DefaultClient,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(f)
	}

	switch f.format {
	case FormatText, FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported response format %q", f.format)
	}

	return f, nil
}

// RequestURL returns the URL requested for name. The endpoint is absolute, so
// any path on the base URL is replaced, as a browser fetch of "/api/..." would.
func (f *Fetcher) RequestURL(name string) string {
	query := url.Values{}
	query.Set(nameParam, name)

	ref := &url.URL{Path: f.endpoint, RawQuery: query.Encode()}
	return f.baseURL.ResolveReference(ref).String()
}

// Fetch requests the greeting for name and shows it on surface. On any
// failure the surface shows ErrorMessage instead and the cause is logged and
// returned. The surface is written in both cases. A nil surface, including a
// nil *Element, returns ErrNoSurface before any request is made.
func (f *Fetcher) Fetch(ctx context.Context, name string, surface Surface) error {
	if surface == nil {
		return ErrNoSurface
	}
	if el, ok := surface.(*Element); ok && el == nil {
		return ErrNoSurface
	}

	requestURL := f.RequestURL(name)

	text, err := f.get(ctx, requestURL)
	if err != nil {
		f.logger.Error().
			Err(err).
			Str("url", requestURL).
			Msg("Error fetching greeting")

		surface.Show(paragraph(ErrorMessage))
		return err
	}

	surface.Show(paragraph(text))
	return nil
}

func (f *Fetcher) get(ctx context.Context, requestURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if f.format == FormatJSON {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch greeting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read greeting: %w", err)
	}

	if f.format == FormatText {
		return string(body), nil
	}

	var payload jsonGreeting
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if payload.Mensaje == "" {
		return "", fmt.Errorf("%w: missing mensaje", ErrMalformedResponse)
	}

	return payload.Mensaje, nil
}
