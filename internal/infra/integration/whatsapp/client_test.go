package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticCreds(phoneID, token string) CredentialSource {
	return func(context.Context) (Credentials, error) {
		return Credentials{PhoneID: phoneID, AccessToken: token}, nil
	}
}

func TestSendText(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/123/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"messages":[{"id":"wamid.ABC"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", staticCreds("123", "tok"))
	id, err := client.SendText(context.Background(), "+5511999990000", "Olá!")

	require.NoError(t, err)
	assert.Equal(t, "wamid.ABC", id)
	assert.Equal(t, "text", got["type"])
	assert.Equal(t, "+5511999990000", got["to"])
}

func TestSendTemplate(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"messages":[{"id":"wamid.T"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "pt_BR", staticCreds("123", "tok"))
	_, err := client.SendTemplate(context.Background(), SendMessageInput{
		PhoneNumber:  "+5511999990000",
		TemplateName: "welcome_notification",
		Parameters:   []string{"Ana", "Pro"},
	})
	require.NoError(t, err)

	tmpl := got["template"].(map[string]interface{})
	assert.Equal(t, "welcome_notification", tmpl["name"])
}

func TestSendErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		_, err := NewClient("http://unused", "", staticCreds("", "")).SendText(context.Background(), "+55", "x")
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("api error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"Re-engagement message","code":131047}}`))
		}))
		defer server.Close()

		_, err := NewClient(server.URL, "", staticCreds("1", "t")).SendText(context.Background(), "+5511999990000", "x")
		assert.ErrorContains(t, err, "Re-engagement")
	})
}
