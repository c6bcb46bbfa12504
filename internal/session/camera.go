package session

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cornerbit/hiksink/internal/hikapi"
)

// Config is the minimal per-camera connection detail the session needs;
// everything else (identifier, display name) lives in the manager.
type Config struct {
	Address  string
	Port     int
	Username string
	Password string
}

func (c Config) baseURL() string {
	if c.Port != 0 {
		return fmt.Sprintf("http://%s:%d", c.Address, c.Port)
	}
	return fmt.Sprintf("http://%s", c.Address)
}

// Camera is an open, authenticated connection to one device: its identity,
// its known triggers, and the multipart alertStream reader that follows.
type Camera struct {
	Info     hikapi.DeviceInfo
	Triggers []hikapi.TriggerItem

	cfg    Config
	client *http.Client
	parts  *multipart.Reader
	stream io.ReadCloser
}

// Load connects to a camera, fetching its identity and trigger list before
// opening the persistent alertStream, grounded on hikapi::camera::Camera::load.
func Load(ctx context.Context, cfg Config) (*Camera, error) {
	client := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				// Matches the original reqwest client's 60s TCP keepalive.
				KeepAlive: 60 * time.Second,
			}).DialContext,
		},
	}

	infoText, err := cameraGet(ctx, client, cfg, "/ISAPI/System/deviceInfo")
	if err != nil {
		return nil, err
	}
	info, err := hikapi.ParseDeviceInfo(infoText)
	if err != nil {
		return nil, fmt.Errorf("parsing device info: %w", err)
	}

	triggersText, err := cameraGet(ctx, client, cfg, "/ISAPI/Event/triggers")
	if err != nil {
		return nil, err
	}
	triggers, err := hikapi.ParseTriggers(triggersText)
	if err != nil {
		return nil, fmt.Errorf("parsing triggers: %w", err)
	}

	resp, err := getURL(ctx, client, cfg.baseURL()+"/ISAPI/Event/notification/alertStream", cfg.Username, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("opening alert stream: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		resp.Body.Close()
		return nil, fmt.Errorf("stream could not be resolved to a multipart form: content type header missing")
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("stream could not be resolved to a multipart form: content type invalid format: %w", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		resp.Body.Close()
		return nil, fmt.Errorf("stream could not be resolved to a multipart form: content type was %q", mediaType)
	}
	boundary, ok := params["boundary"]
	if !ok {
		resp.Body.Close()
		return nil, fmt.Errorf("stream could not be resolved to a multipart form: no boundary set")
	}

	return &Camera{
		Info:     info,
		Triggers: triggers,
		cfg:      cfg,
		client:   client,
		parts:    multipart.NewReader(resp.Body, boundary),
		stream:   resp.Body,
	}, nil
}

// NextAlert blocks for the next part of the alertStream and parses it,
// mirroring Camera::next_event.
func (c *Camera) NextAlert() (hikapi.AlertItem, error) {
	part, err := c.parts.NextPart()
	if err == io.EOF {
		return hikapi.AlertItem{}, fmt.Errorf("camera closed connection")
	}
	if err != nil {
		return hikapi.AlertItem{}, fmt.Errorf("couldn't get next part of stream: %w", err)
	}
	defer part.Close()

	body, err := io.ReadAll(part)
	if err != nil {
		return hikapi.AlertItem{}, fmt.Errorf("stream part could not be read: %w", err)
	}

	alert, err := hikapi.ParseAlert(body)
	if err != nil {
		return hikapi.AlertItem{}, fmt.Errorf("parsing alert: %w", err)
	}
	return alert, nil
}

// Close tears down the underlying HTTP stream.
func (c *Camera) Close() error {
	return c.stream.Close()
}

func cameraGet(ctx context.Context, client *http.Client, cfg Config, path string) ([]byte, error) {
	resp, err := getURL(ctx, client, cfg.baseURL()+path, cfg.Username, cfg.Password)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("camera returned mangled response body: %w", err)
	}
	return body, nil
}

// reconnectDelay is how long to wait between failed (re)connection attempts,
// matching reconnect_cam's constant 3000ms sleep.
const reconnectDelay = 3 * time.Second
