package kommo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xavierca1/ligue-growth/internal/infra/queue"
)

var ErrNotConfigured = errors.New("kommo não configurado")

type Client struct {
	apiToken string
	baseURL  string
	statusID int
	http     *http.Client
}

// NewClient targets https://<subdomain>.kommo.com/api/v4 when baseURL is the
// account URL. statusID is the pipeline stage for paid deals.
func NewClient(apiToken, baseURL string, statusID int) *Client {
	return &Client{
		apiToken: apiToken,
		baseURL:  strings.TrimRight(baseURL, "/"),
		statusID: statusID,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateDeal records an activation as a won deal.
func (c *Client) CreateDeal(ctx context.Context, p queue.ActivationPayload) (int, error) {
	return c.CreateLead(ctx, CreateLeadInput{
		CustomerName: p.Name,
		Email:        p.Email,
		Phone:        p.Phone,
		PlanName:     p.PlanName,
		Price:        p.Amount,
		Tags:         []string{"pagamento_confirmado", strings.ToLower(p.Origin)},
	})
}

func (c *Client) CreateLead(ctx context.Context, input CreateLeadInput) (int, error) {
	if c.apiToken == "" || c.baseURL == "" {
		return 0, ErrNotConfigured
	}

	contactID, err := c.findOrCreateContact(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("erro ao criar/buscar contato: %w", err)
	}

	tags := make([]map[string]interface{}, 0, len(input.Tags))
	for _, t := range input.Tags {
		tags = append(tags, map[string]interface{}{"name": t})
	}

	lead := map[string]interface{}{
		"name":  fmt.Sprintf("%s - %s", input.CustomerName, input.PlanName),
		"price": input.Price / 100,
		"_embedded": map[string]interface{}{
			"tags":     tags,
			"contacts": []map[string]interface{}{{"id": contactID}},
		},
	}
	if c.statusID > 0 {
		lead["status_id"] = c.statusID
	}

	var result embeddedIDs
	if err := c.do(ctx, http.MethodPost, "/leads", []map[string]interface{}{lead}, &result); err != nil {
		return 0, fmt.Errorf("erro ao criar lead: %w", err)
	}
	if len(result.Embedded.Leads) == 0 {
		return 0, errors.New("lead não criado")
	}

	leadID := result.Embedded.Leads[0].ID
	log.Printf("✅ Kommo: lead #%d criado para %s (%s)", leadID, input.CustomerName, input.PlanName)
	return leadID, nil
}

func (c *Client) findOrCreateContact(ctx context.Context, input CreateLeadInput) (int, error) {
	if input.Phone != "" {
		var found embeddedIDs
		err := c.do(ctx, http.MethodGet, "/contacts?query="+url.QueryEscape(input.Phone), nil, &found)
		if err == nil && len(found.Embedded.Contacts) > 0 {
			return found.Embedded.Contacts[0].ID, nil
		}
	}

	fields := []map[string]interface{}{}
	if input.Phone != "" {
		fields = append(fields, map[string]interface{}{
			"field_code": "PHONE",
			"values":     []map[string]interface{}{{"value": input.Phone, "enum_code": "WORK"}},
		})
	}
	if input.Email != "" {
		fields = append(fields, map[string]interface{}{
			"field_code": "EMAIL",
			"values":     []map[string]interface{}{{"value": input.Email, "enum_code": "WORK"}},
		})
	}

	contact := []map[string]interface{}{{
		"name":                 input.CustomerName,
		"custom_fields_values": fields,
	}}

	var created embeddedIDs
	if err := c.do(ctx, http.MethodPost, "/contacts", contact, &created); err != nil {
		return 0, err
	}
	if len(created.Embedded.Contacts) == 0 {
		return 0, errors.New("erro ao obter ID do contato criado")
	}
	return created.Embedded.Contacts[0].ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}
	return json.Unmarshal(respBody, out)
}
