package relay

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"nbasync/ingestion/internal/metrics"
	"nbasync/ingestion/internal/store"
)

// Table field names on the relay-side tables
const (
	FieldPhoneNumber       = "Phone Number"
	FieldCurrentEventIndex = "Current Event Index"
	FieldEventOrder        = "Event Order"
	FieldResponseUser      = "User Phone Number"
	FieldResponseEvent     = "Event"
	FieldResponseBody      = "User Response"
)

// SignatureHeader carries the webhook signature computed by the SMS
// provider: base64(HMAC-SHA1(token, url + sorted form params)).
const SignatureHeader = "X-Webhook-Signature"

// Table is the slice of store behavior the relay needs
type Table interface {
	Select(ctx context.Context, opts store.SelectOptions) ([]store.Record, error)
	Create(ctx context.Context, fields store.Fields) (store.Record, error)
	Update(ctx context.Context, id string, fields store.Fields) (store.Record, error)
}

// Replier sends an outbound SMS. Satisfied by *Sender; nil disables
// outbound replies.
type Replier interface {
	Send(ctx context.Context, to, body string) error
}

// Webhook handles inbound SMS callbacks: verify the provider signature,
// record the user's answer against their current event, and advance
// their position in the event sequence.
type Webhook struct {
	users     Table
	events    Table
	responses Table
	sender    Replier
	authToken string
	publicURL string
}

// NewWebhook creates an inbound SMS handler. publicURL must be the
// exact externally visible URL the provider signs against.
func NewWebhook(users, events, responses Table, sender Replier, authToken, publicURL string) *Webhook {
	return &Webhook{
		users:     users,
		events:    events,
		responses: responses,
		sender:    sender,
		authToken: authToken,
		publicURL: publicURL,
	}
}

type messageReply struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

// ServeHTTP implements http.Handler
func (w *Webhook) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := req.ParseForm(); err != nil {
		http.Error(rw, "bad request", http.StatusBadRequest)
		return
	}

	if !w.verifySignature(req) {
		log.Warn().Str("remote", req.RemoteAddr).Msg("Webhook signature verification failed")
		metrics.RecordError("relay", "signature")
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}

	from := req.PostFormValue("From")
	body := req.PostFormValue("Body")

	reply, err := w.handleInbound(req.Context(), from, body)
	if err != nil {
		log.Error().Err(err).Str("from", from).Msg("Failed to process inbound message")
		metrics.RecordError("relay", "inbound")
		http.Error(rw, "internal error", http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "application/xml")
	rw.WriteHeader(http.StatusOK)
	_ = xml.NewEncoder(rw).Encode(messageReply{Message: reply})
}

// verifySignature recomputes the provider signature over the public URL
// followed by every POST parameter, key then value, in sorted key order.
func (w *Webhook) verifySignature(req *http.Request) bool {
	if w.authToken == "" {
		return false
	}

	got := req.Header.Get(SignatureHeader)
	if got == "" {
		return false
	}

	keys := make([]string, 0, len(req.PostForm))
	for k := range req.PostForm {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mac := hmac.New(sha1.New, []byte(w.authToken))
	mac.Write([]byte(w.publicURL))
	for _, k := range keys {
		mac.Write([]byte(k))
		mac.Write([]byte(req.PostFormValue(k)))
	}
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(got), []byte(want))
}

// handleInbound records the answer and returns the reply body
func (w *Webhook) handleInbound(ctx context.Context, from, body string) (string, error) {
	if from == "" {
		return "", fmt.Errorf("inbound message has no sender")
	}

	users, err := w.users.Select(ctx, store.SelectOptions{
		FilterByFormula: store.Eq(FieldPhoneNumber, from),
		MaxRecords:      1,
	})
	if err != nil {
		return "", fmt.Errorf("user lookup for %s failed: %w", from, err)
	}
	if len(users) == 0 {
		log.Info().Str("from", from).Msg("Inbound message from unknown number")
		return "User not found.", nil
	}
	user := users[0]

	index := fieldInt(user.Fields, FieldCurrentEventIndex)

	events, err := w.events.Select(ctx, store.SelectOptions{
		FilterByFormula: store.EqNum(FieldEventOrder, index),
		MaxRecords:      1,
	})
	if err != nil {
		return "", fmt.Errorf("event lookup at index %d failed: %w", index, err)
	}
	if len(events) == 0 {
		return "No more events.", nil
	}
	event := events[0]

	if _, err := w.responses.Create(ctx, store.Fields{
		FieldResponseUser:  []string{user.ID},
		FieldResponseEvent: []string{event.ID},
		FieldResponseBody:  normalizeBody(body),
	}); err != nil {
		return "", fmt.Errorf("response create failed: %w", err)
	}

	if _, err := w.users.Update(ctx, user.ID, store.Fields{
		FieldCurrentEventIndex: index + 1,
	}); err != nil {
		return "", fmt.Errorf("event index advance failed: %w", err)
	}

	log.Info().
		Str("from", from).
		Int("event_index", index).
		Msg("Inbound response recorded")

	reply := "Thanks, your pick is in."
	if w.sender != nil {
		if err := w.sender.Send(ctx, from, reply); err != nil {
			log.Warn().Err(err).Str("to", from).Msg("Outbound reply failed")
			metrics.RecordError("relay", "outbound")
		}
	}

	return reply, nil
}

// normalizeBody canonicalizes an answer so "y", " Y " and "y\n" record
// identically.
func normalizeBody(body string) string {
	return strings.ToUpper(strings.TrimSpace(body))
}

func fieldInt(fields store.Fields, key string) int {
	switch v := fields[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
