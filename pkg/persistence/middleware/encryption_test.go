package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/aretw0/statelift/pkg/domain"
	"github.com/aretw0/statelift/pkg/persistence/middleware"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func walletState() *domain.State {
	state := domain.NewState(75)
	state.Data["KeyringController"] = map[string]any{"vault": "my-secret-sauce"}
	return state
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	key := generateKey(t)
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	id := "test-wallet"

	if err := secureStore.Save(ctx, id, walletState()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Underlying store sees only the envelope
	storedState, err := underlyingStore.Load(ctx, id)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if _, ok := storedState.Data["KeyringController"]; ok {
		t.Fatal("Expected controllers to be hidden")
	}
	if _, ok := storedState.Data[middleware.EnvelopeKey]; !ok {
		t.Fatal("Expected envelope field in data")
	}
	if storedState.Meta.Version != 75 {
		t.Errorf("Expected envelope to expose version 75, got %d", storedState.Meta.Version)
	}

	loadedState, err := secureStore.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	vault, _, _ := domain.Field[map[string]any](loadedState.Data, "KeyringController")
	if vault["vault"] != "my-secret-sauce" {
		t.Errorf("Expected 'my-secret-sauce', got %v", vault["vault"])
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	mwOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	secureStoreOld := mwOld(underlyingStore)

	ctx := context.Background()
	id := "rotation-wallet"

	if err := secureStoreOld.Save(ctx, id, walletState()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load with NEW key (Active) + OLD key (Fallback)
	mwNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	secureStoreNew := mwNew(underlyingStore)

	loadedState, err := secureStoreNew.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loadedState.Meta.Version != 75 {
		t.Errorf("Decryption with fallback key failed")
	}

	// Save again, now under the new key
	loadedState.Meta.Version = 76
	if err := secureStoreNew.Save(ctx, id, loadedState); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	_, err = secureStoreOld.Load(ctx, id)
	if err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_Plaintext(t *testing.T) {
	ctx := context.Background()
	underlyingStore := NewMockStore()
	_ = underlyingStore.Save(ctx, "legacy", walletState())

	strict := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	if _, err := strict.Load(ctx, "legacy"); !errors.Is(err, middleware.ErrNotEncrypted) {
		t.Fatalf("Expected ErrNotEncrypted, got %v", err)
	}

	lenient := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:      generateKey(t),
		AllowPlaintext: true,
	})(underlyingStore)
	state, err := lenient.Load(ctx, "legacy")
	if err != nil {
		t.Fatalf("Plaintext load failed: %v", err)
	}
	if state.Meta.Version != 75 {
		t.Errorf("Expected version 75, got %d", state.Meta.Version)
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}

func TestDecodeKey(t *testing.T) {
	key := generateKey(t)

	fromHex, err := middleware.DecodeKey(hex.EncodeToString(key))
	if err != nil || string(fromHex) != string(key) {
		t.Fatalf("hex decode failed: %v", err)
	}

	fromB64, err := middleware.DecodeKey(base64.StdEncoding.EncodeToString(key))
	if err != nil || string(fromB64) != string(key) {
		t.Fatalf("base64 decode failed: %v", err)
	}

	if _, err := middleware.DecodeKey(base64.StdEncoding.EncodeToString(key[:16])); err == nil {
		t.Error("Expected error for 16-byte key")
	}
	if _, err := middleware.DecodeKey("not a key!"); err == nil {
		t.Error("Expected error for garbage")
	}
}
