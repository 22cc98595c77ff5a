package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://graph.facebook.com/v19.0"

var ErrNotConfigured = errors.New("whatsapp não configurado")

type CredentialSource func(ctx context.Context) (Credentials, error)

type Client struct {
	baseURL  string
	language string
	http     *http.Client
	creds    CredentialSource
}

func NewClient(baseURL, language string, creds CredentialSource) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if language == "" {
		language = "pt_BR"
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
		http:     &http.Client{Timeout: 10 * time.Second},
		creds:    creds,
	}
}

// SendText sends a free-form message inside the 24h service window.
func (c *Client) SendText(ctx context.Context, to, body string) (string, error) {
	return c.send(ctx, to, map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	})
}

func (c *Client) SendTemplate(ctx context.Context, input SendMessageInput) (string, error) {
	return c.send(ctx, input.PhoneNumber, map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                input.PhoneNumber,
		"type":              "template",
		"template": map[string]interface{}{
			"name":     input.TemplateName,
			"language": map[string]string{"code": c.language},
			"components": []map[string]interface{}{
				{
					"type":       "body",
					"parameters": convertParametersToAPI(input.Parameters),
				},
			},
		},
	})
}

func (c *Client) send(ctx context.Context, to string, payload map[string]interface{}) (string, error) {
	creds, err := c.creds(ctx)
	if err != nil {
		return "", fmt.Errorf("carregar credenciais whatsapp: %w", err)
	}
	if creds.AccessToken == "" || creds.PhoneID == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, creds.PhoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var result SendMessageResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("whatsapp: resposta inválida (status %d)", resp.StatusCode)
	}
	if result.Error != nil {
		return "", fmt.Errorf("whatsapp: %s (code %d)", result.Error.Message, result.Error.Code)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("whatsapp api error: %d", resp.StatusCode)
	}

	var messageID string
	if len(result.Messages) > 0 {
		messageID = result.Messages[0].ID
	}
	log.Printf("✅ WhatsApp: mensagem %s enviada para %s", messageID, to)
	return messageID, nil
}

func convertParametersToAPI(params []string) []map[string]string {
	result := make([]map[string]string, 0, len(params))
	for _, param := range params {
		result = append(result, map[string]string{
			"type": "text",
			"text": param,
		})
	}
	return result
}
