package metacapi

import "time"

const (
	EventLead          = "Lead"
	EventQualifiedLead = "QualifiedLead"
	EventPurchase      = "Purchase"
)

// Event is one server-side conversion. ID must be stable across retries so
// Meta can de-duplicate it.
type Event struct {
	ID         string
	Name       string
	Time       time.Time
	Email      string
	Phone      string
	Value      *float64
	Currency   string
	LeadID     string
	CampaignID string
	CtwaClid   string
	// TestEventCode routes the event to the Events Manager test tab.
	TestEventCode string
}

type Credentials struct {
	PixelID       string
	AccessToken   string
	TestEventCode string
}

type eventsRequest struct {
	Data          []serverEvent `json:"data"`
	TestEventCode string        `json:"test_event_code,omitempty"`
}

type serverEvent struct {
	EventName    string     `json:"event_name"`
	EventTime    int64      `json:"event_time"`
	EventID      string     `json:"event_id"`
	ActionSource string     `json:"action_source"`
	UserData     userData   `json:"user_data"`
	CustomData   customData `json:"custom_data"`
}

type userData struct {
	Em       []string `json:"em,omitempty"`
	Ph       []string `json:"ph,omitempty"`
	CtwaClid string   `json:"ctwa_clid,omitempty"`
}

type customData struct {
	Value      *float64 `json:"value,omitempty"`
	Currency   string   `json:"currency,omitempty"`
	LeadID     string   `json:"lead_id,omitempty"`
	CampaignID string   `json:"campaign_id,omitempty"`
}

type eventsResponse struct {
	EventsReceived int            `json:"events_received"`
	FBTraceID      string         `json:"fbtrace_id"`
	Error          *ErrorResponse `json:"error"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}
