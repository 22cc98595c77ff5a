package razorpay

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const CheckoutScriptURL = "https://checkout.razorpay.com/v1/checkout.js"

// Widget checks that the Checkout script can be served before the browser
// is told to open it, and builds the widget options.
type Widget struct {
	scriptURL string
	keyID     string
	brand     string
	color     string
	http      *http.Client
}

func NewWidget(keyID, brand, color, scriptURL string) *Widget {
	if scriptURL == "" {
		scriptURL = CheckoutScriptURL
	}
	return &Widget{
		scriptURL: scriptURL,
		keyID:     keyID,
		brand:     brand,
		color:     color,
		http:      &http.Client{Timeout: 5 * time.Second},
	}
}

func (w *Widget) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, w.scriptURL, nil)
	if err != nil {
		return err
	}
	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("checkout script indisponível: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("checkout script status %d", resp.StatusCode)
	}
	return nil
}

func (w *Widget) Options(orderID string, amount int64, currency, description string) CheckoutOptions {
	return CheckoutOptions{
		Key:         w.keyID,
		Amount:      amount,
		Currency:    currency,
		Name:        w.brand,
		Description: description,
		OrderID:     orderID,
		Theme:       Theme{Color: w.color},
	}
}
