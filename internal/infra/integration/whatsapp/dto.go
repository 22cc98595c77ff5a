package whatsapp

type SendMessageInput struct {
	PhoneNumber  string   // E.164, Ex: "+5511999999999"
	TemplateName string   // Ex: "welcome_notification"
	Parameters   []string // Ex: []string{"João Silva", "Plano Pro"}
}

type Credentials struct {
	PhoneID     string
	AccessToken string
}

type SendMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Contacts []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Error *ErrorResponse `json:"error"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

// WebhookPayload is the body Meta posts for the "messages" field.
type WebhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string       `json:"field"`
			Value WebhookValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type WebhookValue struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
		WaID string `json:"wa_id"`
	} `json:"contacts"`
	Messages []InboundMessage `json:"messages"`
}

type InboundMessage struct {
	From      string    `json:"from"`
	ID        string    `json:"id"`
	Timestamp string    `json:"timestamp"`
	Type      string    `json:"type"`
	Text      *TextBody `json:"text,omitempty"`
	Referral  *Referral `json:"referral,omitempty"`
}

type TextBody struct {
	Body string `json:"body"`
}

// Referral is present on the first message of a click-to-WhatsApp ad.
type Referral struct {
	SourceURL  string `json:"source_url"`
	SourceID   string `json:"source_id"`
	SourceType string `json:"source_type"`
	CtwaClid   string `json:"ctwa_clid"`
}
