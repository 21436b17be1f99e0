package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pushnotify/internal/model"

	"github.com/rs/zerolog"
)

const maxGatewayResponseBytes = 1 << 20

// PushDispatcher sends one message through the FCM HTTP v1 API.
type PushDispatcher interface {
	Send(ctx context.Context, accessToken, projectID string, msg model.PushMessage) (map[string]any, error)
}

type pushDispatcher struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

func NewPushDispatcher(baseURL string, logger zerolog.Logger) PushDispatcher {
	return &pushDispatcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger.With().Str("component", "PushDispatcher").Logger(),
	}
}

type sendRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (d *pushDispatcher) Send(ctx context.Context, accessToken, projectID string, msg model.PushMessage) (map[string]any, error) {
	data := msg.Data
	if data == nil {
		data = map[string]string{}
	}
	jsonBody, err := json.Marshal(sendRequest{Message: fcmMessage{
		Token:        msg.Token,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         data,
	}})
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/projects/%s/messages:send", d.baseURL, url.PathEscape(projectID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request to FCM: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			d.logger.Warn().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxGatewayResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading FCM response: %w", err)
	}

	if !isJSONContentType(resp.Header.Get("Content-Type")) {
		d.logger.Error().
			Int("status_code", resp.StatusCode).
			Str("content_type", resp.Header.Get("Content-Type")).
			Str("error_body", string(bodyBytes)).
			Msg("FCM returned a non-JSON response")
		return nil, &ProtocolError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var decoded map[string]any
	if err := json.Unmarshal(bodyBytes, &decoded); err != nil {
		d.logger.Error().
			Err(err).
			Int("status_code", resp.StatusCode).
			Str("error_body", string(bodyBytes)).
			Msg("FCM returned malformed JSON")
		return nil, &ProtocolError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.logger.Error().
			Int("status_code", resp.StatusCode).
			Str("error_body", string(bodyBytes)).
			Msg("FCM rejected the notification")
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: gatewayMessage(decoded)}
	}

	return decoded, nil
}

func isJSONContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

// gatewayMessage picks the human-readable message out of an error body. FCM
// nests it under "error"; other proxies put it at the top level.
func gatewayMessage(body map[string]any) string {
	if msg, ok := body["message"].(string); ok && msg != "" {
		return msg
	}
	if errObj, ok := body["error"].(map[string]any); ok {
		if msg, ok := errObj["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return "unknown error"
}
