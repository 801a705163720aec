package pipeline

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/makalin/soniclink/config"
)

func testKeypair(t *testing.T) (*rsa.PrivateKey, *rsa.PublicKey) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return priv, &priv.PublicKey
}

func TestSendReceiveRoundTripOverIdentityChannel(t *testing.T) {
	priv, pub := testKeypair(t)
	cfg := config.New()
	cfg.SampleRate = 8000 // keep the waveform small for a fast test.

	sender := New(cfg, nil)
	receiver := New(cfg, nil)

	payload := []byte("the quick brown fox jumps over the lazy dog")
	waveform, err := sender.Send(payload, pub)
	if err != nil {
		t.Fatal(err)
	}

	result := receiver.Receive(waveform, priv)
	if result.Err != nil {
		t.Fatalf("receive failed: %v", result.Err)
	}
	if string(result.Bytes) != string(payload) {
		t.Errorf("got %q, want %q", result.Bytes, payload)
	}
}

func TestSendReceiveWithAllStagesDisabled(t *testing.T) {
	cfg := config.New()
	cfg.SampleRate = 8000
	cfg.CompressionEnabled = false
	cfg.EncryptionEnabled = false
	cfg.ReedSolomonEnabled = false

	p := New(cfg, nil)
	payload := []byte("plaintext over the air")
	waveform, err := p.Send(payload, nil)
	if err != nil {
		t.Fatal(err)
	}

	result := p.Receive(waveform, nil)
	if result.Err != nil {
		t.Fatalf("receive failed: %v", result.Err)
	}
	if string(result.Bytes) != string(payload) {
		t.Errorf("got %q, want %q", result.Bytes, payload)
	}
}

func TestSendRequiresRecipientWhenEncryptionEnabled(t *testing.T) {
	cfg := config.New()
	p := New(cfg, nil)
	if _, err := p.Send([]byte("secret"), nil); err == nil {
		t.Fatal("expected an error sending with encryption enabled and no recipient key")
	}
}

func TestReceiveEmptyWaveformIsNoSignal(t *testing.T) {
	cfg := config.New()
	p := New(cfg, nil)
	result := p.Receive(nil, nil)
	if result.Err != nil || result.Bytes != nil {
		t.Errorf("expected zero Result for an empty waveform, got %+v", result)
	}
}

func TestReceiveGarbageWaveformReportsNoFrame(t *testing.T) {
	cfg := config.New()
	cfg.SampleRate = 8000
	p := New(cfg, nil)

	noise := make([]float64, 4000)
	for i := range noise {
		noise[i] = 0.01
	}
	result := p.Receive(noise, nil)
	if result.Err == nil {
		t.Fatal("expected a typed error for a waveform with no markers")
	}
	var pe *Error
	if e, ok := result.Err.(*Error); ok {
		pe = e
	} else {
		t.Fatalf("expected *pipeline.Error, got %T", result.Err)
	}
	if pe.Kind != NoFrame {
		t.Errorf("Kind = %v, want NoFrame", pe.Kind)
	}
}
