package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/gymdesk/internal/domain"
)

const postmarkBaseURL = "https://api.postmarkapp.com"

// PostmarkSender is a secondary provider using the Postmark HTTP API.
type PostmarkSender struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

type postmarkEmail struct {
	From        string           `json:"From"`
	To          string           `json:"To"`
	Subject     string           `json:"Subject"`
	HtmlBody    string           `json:"HtmlBody,omitempty"`
	TextBody    string           `json:"TextBody,omitempty"`
	Headers     []postmarkHeader `json:"Headers,omitempty"`
	Attachments []postmarkAttach `json:"Attachments,omitempty"`
}

type postmarkHeader struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

type postmarkAttach struct {
	Name        string `json:"Name"`
	Content     string `json:"Content"`
	ContentType string `json:"ContentType"`
}

type postmarkResponse struct {
	To        string `json:"To"`
	MessageID string `json:"MessageID"`
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// NewPostmarkSender creates a Postmark sender. from is the default sender.
func NewPostmarkSender(apiKey, from string) *PostmarkSender {
	return &PostmarkSender{
		apiKey:  apiKey,
		from:    from,
		baseURL: postmarkBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *PostmarkSender) Name() string { return "postmark" }

func (p *PostmarkSender) Kind() domain.DeliveryProvider { return domain.ProviderSecondary }

func (p *PostmarkSender) IsConfigured() bool { return p.apiKey != "" }

// Send sends an email via Postmark
func (p *PostmarkSender) Send(ctx context.Context, email *Email) (string, error) {
	from := email.From
	if from == "" {
		from = p.from
	}

	payload := postmarkEmail{
		From:     from,
		To:       strings.Join(email.To, ","),
		Subject:  email.Subject,
		HtmlBody: email.HTMLBody,
		TextBody: email.TextBody,
	}

	for name, value := range email.Headers {
		payload.Headers = append(payload.Headers, postmarkHeader{Name: name, Value: value})
	}

	for _, att := range email.Attachments {
		payload.Attachments = append(payload.Attachments, postmarkAttach{
			Name:        att.Filename,
			Content:     base64.StdEncoding.EncodeToString(att.Content),
			ContentType: att.ContentType,
		})
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/email", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("postmark API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result postmarkResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if result.ErrorCode != 0 {
		return "", fmt.Errorf("postmark error %d: %s", result.ErrorCode, result.Message)
	}

	return result.MessageID, nil
}
