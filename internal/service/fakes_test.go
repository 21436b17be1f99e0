package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"sync"
	"testing"

	"pushnotify/internal/model"
)

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
	err      error
	calls    []string
}

func (f *fakeProfileRepo) GetProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	if f.err != nil {
		return nil, f.err
	}
	return f.profiles[id], nil
}

type fakeOfferRepo struct {
	mu     sync.Mutex
	offers map[string]*model.Offer
	err    error
	calls  []string
}

func (f *fakeOfferRepo) GetOfferByID(ctx context.Context, id string) (*model.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	if f.err != nil {
		return nil, f.err
	}
	return f.offers[id], nil
}

type fakeExchanger struct {
	mu    sync.Mutex
	token string
	// perCall appends the call number to token so every exchange is distinct.
	perCall bool
	issued  []string
	err     error
	calls   int
}

func (f *fakeExchanger) AccessToken(ctx context.Context, cred model.ServiceAccountCredential) (*model.AccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	value := f.token
	if f.perCall {
		value = fmt.Sprintf("%s-%d", f.token, f.calls)
	}
	f.issued = append(f.issued, value)
	return &model.AccessToken{Value: value}, nil
}

type sentPush struct {
	accessToken string
	projectID   string
	msg         model.PushMessage
}

type fakeDispatcher struct {
	mu   sync.Mutex
	resp map[string]any
	err  error
	sent []sentPush
}

func (f *fakeDispatcher) Send(ctx context.Context, accessToken, projectID string, msg model.PushMessage) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentPush{accessToken: accessToken, projectID: projectID, msg: msg})
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type publishedMessage struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	mu        sync.Mutex
	err       error
	published []publishedMessage
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, publishedMessage{topic: topic, payload: payload})
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

// newPrivateKeyPEM returns a PKCS#8 PEM-encoded RSA key, the format found in
// service account key files.
func newPrivateKeyPEM(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}
