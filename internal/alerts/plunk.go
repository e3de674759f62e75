package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sudo-init-do/tgwork/internal/config"
)

type plunkSendBody struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	From    string `json:"from,omitempty"`
	Reply   string `json:"reply,omitempty"`
}

// PlunkSender sends through the Plunk HTTP API.
type PlunkSender struct {
	apiKey  string
	from    string
	apiURL  string
	replyTo string
	http    *http.Client
}

func NewPlunkSender(cfg config.Mail, hc *http.Client) *PlunkSender {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	apiURL := cfg.PlunkAPIURL
	if apiURL == "" {
		apiURL = "https://api.useplunk.com/v1/send"
	}
	return &PlunkSender{
		apiKey:  cfg.PlunkAPIKey,
		from:    cfg.PlunkFrom,
		apiURL:  apiURL,
		replyTo: cfg.ReplyTo,
		http:    hc,
	}
}

func (p *PlunkSender) Send(ctx context.Context, to, subject, body string) error {
	b, err := json.Marshal(plunkSendBody{
		To:      to,
		Subject: subject,
		Body:    body,
		From:    p.from,
		Reply:   p.replyTo,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096)); readErr == nil && len(msg) > 0 {
			return fmt.Errorf("plunk send failed: status=%d body=%s", resp.StatusCode, msg)
		}
		return fmt.Errorf("plunk send failed: status=%d", resp.StatusCode)
	}
	return nil
}
