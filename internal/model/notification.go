package model

import (
	"bytes"
	"encoding/json"
	"reflect"
	"time"
)

// Kind selects which notification variant an invocation carries.
type Kind string

const (
	KindMessage      Kind = "message"
	KindOfferContact Kind = "offer_contact"
)

// Notification is a validated inbound payload. Implemented by
// *MessageNotification and *OfferContact.
type Notification interface {
	Kind() Kind
}

// MessageNotification is the direct-notify body sent when a chat message is
// created. ReceiverID is the profile to notify.
type MessageNotification struct {
	ReceiverID string            `json:"receiver_id" validate:"required"`
	Title      string            `json:"title" validate:"required"`
	Body       string            `json:"body" validate:"required"`
	Data       map[string]string `json:"data"`
}

func (*MessageNotification) Kind() Kind { return KindMessage }

// OfferContactRecord is the inserted row carried by the offer-contact webhook.
// Only the offer and sender are read; any owner id in the row is ignored.
type OfferContactRecord struct {
	OfferID  RowID `json:"offer_id" validate:"required"`
	SenderID RowID `json:"sender_id"`
}

// RowID is a primary key sent by a webhook. Tables keyed by bigint send it as
// a JSON number, uuid tables as a string; both are kept as text.
type RowID string

func (id *RowID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = RowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return &json.UnmarshalTypeError{Value: string(b), Type: reflect.TypeOf(*id)}
	}
	*id = RowID(n.String())
	return nil
}

// OfferContactEvent is a Supabase database webhook for an insert on the
// contacts table.
type OfferContactEvent struct {
	Type      string              `json:"type" validate:"omitempty,eq=INSERT"`
	Table     string              `json:"table"`
	Schema    string              `json:"schema"`
	Record    *OfferContactRecord `json:"record" validate:"required"`
	OldRecord *OfferContactRecord `json:"old_record"`
}

// OfferContact asks the owner of an offer to be told someone wrote to them.
type OfferContact struct {
	OfferID  string
	SenderID string
	Table    string
}

func (*OfferContact) Kind() Kind { return KindOfferContact }

// PushMessage is the single FCM message sent by an invocation.
type PushMessage struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// PushOutcome is the audit record of one invocation.
type PushOutcome struct {
	InvocationID string         `json:"invocation_id"`
	Kind         Kind           `json:"kind"`
	RecipientID  string         `json:"recipient_id,omitempty"`
	Success      bool           `json:"success"`
	ErrorType    string         `json:"error_type,omitempty"`
	Error        string         `json:"error,omitempty"`
	Response     map[string]any `json:"response,omitempty"`
	CompletedAt  time.Time      `json:"completed_at"`
}
