// Package notify sends booking confirmations to the traveller's chat.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/tripflow/internal/logging"
	"github.com/dmitrijs2005/tripflow/internal/netx"
)

var ErrNoRecipient = errors.New("no recipient")

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type message struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type messageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// WhatsAppNotifier posts text messages through the Cloud API
// (POST {base}/{phone number id}/messages).
type WhatsAppNotifier struct {
	client        *http.Client
	baseURL       string
	phoneNumberID string
	accessToken   string
	log           logging.Logger
}

func NewWhatsAppNotifier(client *http.Client, baseURL, phoneNumberID, accessToken string, l logging.Logger) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		client:        client,
		baseURL:       strings.TrimRight(baseURL, "/"),
		phoneNumberID: phoneNumberID,
		accessToken:   accessToken,
		log:           l.With("module", "notify"),
	}
}

func (n *WhatsAppNotifier) endpoint() string {
	return fmt.Sprintf("%s/%s/messages", n.baseURL, n.phoneNumberID)
}

// Send delivers text to the phone number to.
func (n *WhatsAppNotifier) Send(ctx context.Context, to, text string) error {
	to = strings.TrimPrefix(strings.TrimSpace(to), "+")
	if to == "" {
		return ErrNoRecipient
	}

	msg := message{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: text},
	}

	headers := map[string]string{"Authorization": "Bearer " + n.accessToken}
	body, err := netx.PostJSON(ctx, n.client, n.endpoint(), headers, msg)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	var resp messageResponse
	if err := json.Unmarshal(body, &resp); err == nil && len(resp.Messages) > 0 {
		n.log.Debug(ctx, "message accepted", "message_id", resp.Messages[0].ID)
	}
	return nil
}

// LogNotifier only logs confirmations. It is used when no access token is
// configured.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(l logging.Logger) *LogNotifier {
	return &LogNotifier{log: l.With("module", "notify")}
}

func (n *LogNotifier) Send(ctx context.Context, to, text string) error {
	if strings.TrimSpace(to) == "" {
		return ErrNoRecipient
	}
	n.log.Info(ctx, "confirmation not delivered, messaging disabled", "chars", len(text))
	return nil
}
