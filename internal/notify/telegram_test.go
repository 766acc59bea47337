package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	config "github.com/maheshrc27/postloop/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnabledRequiresBothSettings(t *testing.T) {
	assert.False(t, NewTelegram(config.Telegram{}).Enabled())
	assert.False(t, NewTelegram(config.Telegram{BotToken: "t"}).Enabled())
	assert.False(t, NewTelegram(config.Telegram{ChatID: "c"}).Enabled())
	assert.True(t, NewTelegram(config.Telegram{BotToken: "t", ChatID: "c"}).Enabled())
}

func TestSendIsNoOpWhenDisabled(t *testing.T) {
	tg := NewTelegram(config.Telegram{})
	assert.False(t, tg.Send("hello"))
}

func TestSendPostsToBotAPI(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken123/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram(config.Telegram{BotToken: "token123", ChatID: "chat42"})
	tg.apiBase = srv.URL + "/bot"

	assert.True(t, tg.NotifySuccess("acct1", "carousel", "https://example.com/p/1", "media-1"))
	assert.Equal(t, "chat42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Contains(t, got["text"], "acct1")
	assert.Contains(t, got["text"], "media-1")
}

func TestSendReportsDeliveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tg := NewTelegram(config.Telegram{BotToken: "token123", ChatID: "chat42"})
	tg.apiBase = srv.URL + "/bot"

	assert.False(t, tg.NotifyFailure("acct1", "boom"))
}
