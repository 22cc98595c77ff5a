package metacapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode"
)

const DefaultBaseURL = "https://graph.facebook.com/v19.0"

var ErrNotConfigured = errors.New("meta conversions api não configurada")

// CredentialSource returns the pixel credentials for the current call so a
// settings change applies without a restart.
type CredentialSource func(ctx context.Context) (Credentials, error)

type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      CredentialSource
}

func NewClient(baseURL string, creds CredentialSource) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		creds:      creds,
	}
}

// StaticCredentials is a CredentialSource for fixed values.
func StaticCredentials(c Credentials) CredentialSource {
	return func(context.Context) (Credentials, error) { return c, nil }
}

func (c *Client) Send(ctx context.Context, ev Event) error {
	creds, err := c.creds(ctx)
	if err != nil {
		return fmt.Errorf("carregar credenciais meta: %w", err)
	}
	if creds.PixelID == "" || creds.AccessToken == "" {
		return ErrNotConfigured
	}

	reqBody := eventsRequest{
		Data: []serverEvent{{
			EventName:    ev.Name,
			EventTime:    eventTime(ev.Time),
			EventID:      ev.ID,
			ActionSource: "system_generated",
			UserData: userData{
				Em:       hashed(normalizeEmail(ev.Email)),
				Ph:       hashed(normalizePhone(ev.Phone)),
				CtwaClid: ev.CtwaClid,
			},
			CustomData: customData{
				Value:      ev.Value,
				Currency:   ev.Currency,
				LeadID:     ev.LeadID,
				CampaignID: ev.CampaignID,
			},
		}},
		TestEventCode: ev.TestEventCode,
	}
	if reqBody.TestEventCode == "" {
		reqBody.TestEventCode = creds.TestEventCode
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/events", c.baseURL, creds.PixelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var result eventsResponse
	_ = json.Unmarshal(respBody, &result)

	if resp.StatusCode != http.StatusOK {
		if result.Error != nil {
			return fmt.Errorf("meta capi %d: %s", resp.StatusCode, result.Error.Message)
		}
		return fmt.Errorf("meta capi status %d: %s", resp.StatusCode, string(respBody))
	}

	log.Printf("📈 [CAPI] %s enviado (event_id=%s, recebidos=%d)", ev.Name, ev.ID, result.EventsReceived)
	return nil
}

func eventTime(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Unix()
}

func hashed(v string) []string {
	if v == "" {
		return nil
	}
	sum := sha256.Sum256([]byte(v))
	return []string{hex.EncodeToString(sum[:])}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizePhone keeps digits only, country code included, as Meta expects.
func normalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
}
