package metacapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSend(t *testing.T) {
	var got eventsRequest
	var gotPath, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"events_received":1,"fbtrace_id":"abc"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, StaticCredentials(Credentials{PixelID: "px1", AccessToken: "tok"}))
	value := 5000.0

	err := client.Send(context.Background(), Event{
		ID:       "lead-1:purchase",
		Name:     EventPurchase,
		Time:     time.Unix(1700000000, 0),
		Email:    " A@B.com ",
		Phone:    "+55 (11) 99999-0000",
		Value:    &value,
		Currency: "BRL",
		LeadID:   "lead-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "/px1/events", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	require.Len(t, got.Data, 1)

	ev := got.Data[0]
	assert.Equal(t, "Purchase", ev.EventName)
	assert.Equal(t, "lead-1:purchase", ev.EventID)
	assert.Equal(t, int64(1700000000), ev.EventTime)
	assert.Equal(t, "system_generated", ev.ActionSource)
	assert.Equal(t, hashed("a@b.com"), ev.UserData.Em)
	assert.Equal(t, hashed("5511999990000"), ev.UserData.Ph)
	require.NotNil(t, ev.CustomData.Value)
	assert.Equal(t, 5000.0, *ev.CustomData.Value)
}

func TestClientSendErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		client := NewClient("http://unused", StaticCredentials(Credentials{}))
		err := client.Send(context.Background(), Event{Name: EventLead})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("api error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"Invalid parameter","code":100}}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, StaticCredentials(Credentials{PixelID: "px", AccessToken: "tok"}))
		err := client.Send(context.Background(), Event{Name: EventLead})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid parameter")
	})

	t.Run("test event code from credentials", func(t *testing.T) {
		var got eventsRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&got)
			w.Write([]byte(`{"events_received":1}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, StaticCredentials(Credentials{PixelID: "px", AccessToken: "tok", TestEventCode: "TEST123"}))
		require.NoError(t, client.Send(context.Background(), Event{Name: EventLead, ID: "x:lead"}))
		assert.Equal(t, "TEST123", got.TestEventCode)
	})
}
