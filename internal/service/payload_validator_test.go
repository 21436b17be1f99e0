package service

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"pushnotify/internal/model"

	"github.com/go-playground/validator/v10"
)

func newTestValidator() PayloadValidator {
	return NewPayloadValidator(validator.New(validator.WithRequiredStructEnabled()))
}

func TestParseMessageNotification(t *testing.T) {
	v := newTestValidator()

	n, err := v.Parse(model.KindMessage, []byte(`{"receiver_id":"u1","title":"Hi","body":"there"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	msg, ok := n.(*model.MessageNotification)
	if !ok {
		t.Fatalf("expected *model.MessageNotification, got %T", n)
	}
	if msg.ReceiverID != "u1" || msg.Title != "Hi" || msg.Body != "there" {
		t.Fatalf("unexpected notification: %+v", msg)
	}
	if msg.Data == nil || len(msg.Data) != 0 {
		t.Fatalf("expected empty non-nil data, got %#v", msg.Data)
	}
	if msg.Kind() != model.KindMessage {
		t.Fatalf("kind: %s", msg.Kind())
	}
}

func TestParseMessageNotificationKeepsData(t *testing.T) {
	n, err := newTestValidator().Parse(model.KindMessage, []byte(`{"receiver_id":"u1","title":"Hi","body":"there","data":{"chat_id":"c9"}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := n.(*model.MessageNotification).Data["chat_id"]; got != "c9" {
		t.Fatalf("data chat_id: %q", got)
	}
}

func TestParseMessageNotificationMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"all missing", `{}`, []string{"receiver_id", "title", "body"}},
		{"no title", `{"receiver_id":"u1","body":"b"}`, []string{"title"}},
		{"empty body", `{"receiver_id":"u1","title":"t","body":""}`, []string{"body"}},
		{"null", `null`, []string{"receiver_id", "title", "body"}},
	}
	v := newTestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Parse(model.KindMessage, []byte(tt.body))
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !reflect.DeepEqual(vErr.Fields, tt.want) {
				t.Fatalf("fields: got %v, want %v", vErr.Fields, tt.want)
			}
		})
	}
}

func TestParseMalformedPayload(t *testing.T) {
	v := newTestValidator()

	_, err := v.Parse(model.KindMessage, []byte(`{"receiver_id":`))
	var vErr *ValidationError
	if !errors.As(err, &vErr) || !reflect.DeepEqual(vErr.Fields, []string{"payload"}) {
		t.Fatalf("expected payload ValidationError, got %v", err)
	}

	_, err = v.Parse(model.KindMessage, []byte(`{"receiver_id":"u1","title":"t","body":"b","data":{"n":1}}`))
	if !errors.As(err, &vErr) || len(vErr.Fields) != 1 || !strings.HasPrefix(vErr.Fields[0], "data") {
		t.Fatalf("expected data ValidationError, got %v", err)
	}

	_, err = v.Parse(model.KindOfferContact, []byte("  "))
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for empty body, got %v", err)
	}
}

func TestParseOfferContact(t *testing.T) {
	body := `{
		"type": "INSERT",
		"table": "contacts",
		"schema": "chats",
		"record": {"offer_id": "o1", "sender_id": "s1", "offer_owner_id": "attacker"},
		"old_record": null
	}`
	n, err := newTestValidator().Parse(model.KindOfferContact, []byte(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	contact, ok := n.(*model.OfferContact)
	if !ok {
		t.Fatalf("expected *model.OfferContact, got %T", n)
	}
	if contact.OfferID != "o1" || contact.SenderID != "s1" || contact.Table != "contacts" {
		t.Fatalf("unexpected contact: %+v", contact)
	}
}

func TestParseOfferContactNumericIDs(t *testing.T) {
	n, err := newTestValidator().Parse(model.KindOfferContact, []byte(`{"type":"INSERT","record":{"offer_id":42,"sender_id":7}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	contact := n.(*model.OfferContact)
	if contact.OfferID != "42" || contact.SenderID != "7" {
		t.Fatalf("unexpected contact: %+v", contact)
	}
}

func TestParseOfferContactMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"no record", `{"type":"INSERT","table":"contacts"}`, []string{"record"}},
		{"null record", `{"type":"INSERT","record":null}`, []string{"record"}},
		{"no offer id", `{"type":"INSERT","record":{"sender_id":"s1"}}`, []string{"record.offer_id"}},
		{"not an insert", `{"type":"UPDATE","record":{"offer_id":"o1"}}`, []string{"type"}},
		{"empty offer id", `{"type":"INSERT","record":{"offer_id":""}}`, []string{"record.offer_id"}},
		{"null offer id", `{"type":"INSERT","record":{"offer_id":null}}`, []string{"record.offer_id"}},
		{"bool offer id", `{"type":"INSERT","record":{"offer_id":true}}`, []string{"record.offer_id"}},
	}
	v := newTestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Parse(model.KindOfferContact, []byte(tt.body))
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !reflect.DeepEqual(vErr.Fields, tt.want) {
				t.Fatalf("fields: got %v, want %v", vErr.Fields, tt.want)
			}
		})
	}
}

func TestParseUnknownKind(t *testing.T) {
	_, err := newTestValidator().Parse(model.Kind("sms"), []byte(`{}`))
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		t.Fatalf("unknown kind should not be a ValidationError: %v", err)
	}
}
