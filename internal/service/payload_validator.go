package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"pushnotify/internal/model"

	"github.com/go-playground/validator/v10"
)

// PayloadValidator turns a raw request body into a typed notification.
type PayloadValidator interface {
	Parse(kind model.Kind, raw []byte) (model.Notification, error)
}

type payloadValidator struct {
	validate *validator.Validate
}

// NewPayloadValidator wraps v so that field errors are reported with their
// JSON names.
func NewPayloadValidator(v *validator.Validate) PayloadValidator {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &payloadValidator{validate: v}
}

func (p *payloadValidator) Parse(kind model.Kind, raw []byte) (model.Notification, error) {
	switch kind {
	case model.KindMessage:
		var n model.MessageNotification
		if err := p.decode(raw, &n); err != nil {
			return nil, err
		}
		if n.Data == nil {
			n.Data = map[string]string{}
		}
		return &n, nil

	case model.KindOfferContact:
		var ev model.OfferContactEvent
		if err := p.decode(raw, &ev); err != nil {
			return nil, err
		}
		return &model.OfferContact{
			OfferID:  string(ev.Record.OfferID),
			SenderID: string(ev.Record.SenderID),
			Table:    ev.Table,
		}, nil

	default:
		return nil, fmt.Errorf("unknown notification kind %q", kind)
	}
}

func (p *payloadValidator) decode(raw []byte, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return &ValidationError{Fields: []string{"payload"}, Reason: "empty body"}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &ValidationError{Fields: []string{typeErr.Field}, Reason: err.Error()}
		}
		return &ValidationError{Fields: []string{"payload"}, Reason: err.Error()}
	}

	if err := p.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return &ValidationError{Reason: err.Error()}
		}
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fieldPath(fe.Namespace()))
		}
		return &ValidationError{Fields: fields}
	}
	return nil
}

// fieldPath drops the struct name from a validator namespace,
// "OfferContactEvent.record.offer_id" -> "record.offer_id".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
