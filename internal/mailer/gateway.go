// README: HTTP client for the internal mail gateway used by the update fan-out.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type GatewayClient struct {
	baseURL string
	token   string
	sender  string
	http    *http.Client
}

func NewGatewayClient(baseURL, token, sender string) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		token:   token,
		sender:  sender,
		http: &http.Client{
			Timeout: 8 * time.Second,
		},
	}
}

type sendMessageReq struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type gatewayResp struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Send posts one message to the gateway. Callers treat failures as
// best-effort; this client only reports them.
func (c *GatewayClient) Send(ctx context.Context, to, subject, body string) error {
	if c.token == "" {
		return fmt.Errorf("mail gateway token is not configured")
	}

	b, _ := json.Marshal(sendMessageReq{From: c.sender, To: to, Subject: subject, Body: body})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mail gateway http %d: %s", resp.StatusCode, string(raw))
	}

	var gr gatewayResp
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("mail gateway decode error: %w", err)
	}
	if !gr.OK {
		return fmt.Errorf("mail gateway error: %s", gr.Error)
	}
	return nil
}
