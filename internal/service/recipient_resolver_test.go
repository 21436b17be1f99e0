package service

import (
	"context"
	"errors"
	"testing"

	"pushnotify/internal/model"

	"github.com/rs/zerolog"
)

func newFakeRepos() (*fakeProfileRepo, *fakeOfferRepo) {
	profiles := &fakeProfileRepo{profiles: map[string]*model.Profile{
		"u1":    {ID: "u1", FMCToken: "tok1"},
		"owner": {ID: "owner", FMCToken: "owner-tok"},
		"empty": {ID: "empty", FMCToken: ""},
	}}
	offers := &fakeOfferRepo{offers: map[string]*model.Offer{
		"o1":       {ID: "o1", UserID: "owner", Name: "Clases de guitarra"},
		"orphan":   {ID: "orphan", UserID: "", Name: "Sin dueño"},
		"no-token": {ID: "no-token", UserID: "empty", Name: "Pintor"},
		"ghost":    {ID: "ghost", UserID: "missing", Name: "Fantasma"},
		"42":       {ID: "42", UserID: "owner", Name: "Jardinero"},
	}}
	return profiles, offers
}

func TestResolveDirect(t *testing.T) {
	profiles, offers := newFakeRepos()
	r := NewRecipientResolver(profiles, offers, zerolog.Nop())

	got, err := r.Resolve(context.Background(), &model.MessageNotification{ReceiverID: "u1", Title: "t", Body: "b"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ProfileID != "u1" || got.DeviceToken != "tok1" || got.Offer != nil {
		t.Fatalf("unexpected recipient: %+v", got)
	}
	if len(offers.calls) != 0 {
		t.Fatalf("direct resolution must not read offers, got %v", offers.calls)
	}
}

func TestResolveOfferOwner(t *testing.T) {
	profiles, offers := newFakeRepos()
	r := NewRecipientResolver(profiles, offers, zerolog.Nop())

	got, err := r.Resolve(context.Background(), &model.OfferContact{OfferID: "o1", SenderID: "s1"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ProfileID != "owner" || got.DeviceToken != "owner-tok" {
		t.Fatalf("unexpected recipient: %+v", got)
	}
	if got.Offer == nil || got.Offer.Name != "Clases de guitarra" {
		t.Fatalf("expected offer on recipient, got %+v", got.Offer)
	}
	if len(profiles.calls) != 1 || profiles.calls[0] != "owner" {
		t.Fatalf("profile lookups: %v", profiles.calls)
	}
}

func TestResolveNotFound(t *testing.T) {
	tests := []struct {
		name         string
		notification model.Notification
		wantResource string
	}{
		{"unknown profile", &model.MessageNotification{ReceiverID: "nobody"}, "device_token"},
		{"empty token", &model.MessageNotification{ReceiverID: "empty"}, "device_token"},
		{"unknown offer", &model.OfferContact{OfferID: "nope"}, "offer"},
		{"offer without owner", &model.OfferContact{OfferID: "orphan"}, "offer_owner"},
		{"owner without token", &model.OfferContact{OfferID: "no-token"}, "device_token"},
		{"owner without profile", &model.OfferContact{OfferID: "ghost"}, "device_token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles, offers := newFakeRepos()
			r := NewRecipientResolver(profiles, offers, zerolog.Nop())

			_, err := r.Resolve(context.Background(), tt.notification)
			var nfErr *NotFoundError
			if !errors.As(err, &nfErr) {
				t.Fatalf("expected NotFoundError, got %v", err)
			}
			if nfErr.Resource != tt.wantResource {
				t.Fatalf("resource: got %q, want %q", nfErr.Resource, tt.wantResource)
			}
		})
	}
}

func TestResolveUnknownOfferSkipsProfileLookup(t *testing.T) {
	profiles, offers := newFakeRepos()
	r := NewRecipientResolver(profiles, offers, zerolog.Nop())

	if _, err := r.Resolve(context.Background(), &model.OfferContact{OfferID: "nope"}); err == nil {
		t.Fatal("expected error")
	}
	if len(profiles.calls) != 0 {
		t.Fatalf("profile lookups after missing offer: %v", profiles.calls)
	}
}

func TestResolveRepositoryError(t *testing.T) {
	dbErr := errors.New("connection reset")
	profiles, offers := newFakeRepos()
	offers.err = dbErr
	r := NewRecipientResolver(profiles, offers, zerolog.Nop())

	_, err := r.Resolve(context.Background(), &model.OfferContact{OfferID: "o1"})
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	var nfErr *NotFoundError
	if errors.As(err, &nfErr) {
		t.Fatalf("db failure must not look like not found: %v", err)
	}
}
