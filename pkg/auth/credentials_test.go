package auth

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func TestCredentialManager(t *testing.T) {
	mockStore := NewMockStore()
	manager := NewManagerWithStores(mockStore)

	account := &Account{
		Username:  "testuser",
		SessionID: "test_session_id_12345",
		CSRFToken: "test_csrf_token_67890",
		UserAgent: "TestAgent/1.0",
	}

	if err := manager.Store(account); err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	retrieved, err := manager.Retrieve("testuser")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}
	if retrieved.SessionID != account.SessionID {
		t.Errorf("Expected session ID %s, got %s", account.SessionID, retrieved.SessionID)
	}
	if retrieved.LastModified.IsZero() {
		t.Error("Expected a last-modified timestamp to be stamped on store")
	}

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected 1 account, got %d", len(accounts))
	}

	if err := manager.Delete("testuser"); err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}
	if _, err := manager.Retrieve("testuser"); err == nil {
		t.Error("Expected an error retrieving a deleted account")
	}
}

func TestManagerValidation(t *testing.T) {
	manager := NewManagerWithStores(NewMockStore())

	tests := []struct {
		name    string
		account *Account
	}{
		{"missing username", &Account{SessionID: "sid", CSRFToken: "csrf"}},
		{"missing session id", &Account{Username: "user", CSRFToken: "csrf"}},
		{"missing csrf token", &Account{Username: "user", SessionID: "sid"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := manager.Store(test.account); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestManagerFallback(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = fmt.Errorf("keychain locked")
	broken.RetrieveError = fmt.Errorf("keychain locked")
	working := NewMockStore()

	manager := NewManagerWithStores(broken, working)

	account := &Account{Username: "fallback", SessionID: "sid_12345", CSRFToken: "csrf_67890"}
	if err := manager.Store(account); err != nil {
		t.Fatalf("Expected the second store to take the write: %v", err)
	}

	retrieved, err := manager.Retrieve("fallback")
	if err != nil {
		t.Fatalf("Expected retrieval through the fallback store: %v", err)
	}
	if retrieved.SessionID != "sid_12345" {
		t.Errorf("Unexpected account: %+v", retrieved)
	}
}

func TestManagerAllStoresFail(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = fmt.Errorf("disk full")

	manager := NewManagerWithStores(broken)
	account := &Account{Username: "user", SessionID: "sid", CSRFToken: "csrf"}

	if err := manager.Store(account); err == nil {
		t.Error("Expected an error when every store fails")
	}
}

func TestRetrieveDefaultPrefersEnvironment(t *testing.T) {
	t.Setenv("IGPROFILES_SESSION_ID", "env_session")
	t.Setenv("IGPROFILES_CSRF_TOKEN", "env_csrf")
	t.Setenv("IGPROFILES_USER_AGENT", "EnvAgent/2.0")

	fileStore := NewMockStore()
	manager := NewManagerWithStores(fileStore, NewEnvironmentStore())

	stored := &Account{Username: "stored", SessionID: "stored_sid", CSRFToken: "stored_csrf"}
	if err := manager.Store(stored); err != nil {
		t.Fatal(err)
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		t.Fatalf("Expected a default account: %v", err)
	}
	if account.SessionID != "env_session" {
		t.Errorf("Expected environment credentials to win, got %+v", account)
	}
	if account.UserAgent != "EnvAgent/2.0" {
		t.Errorf("Expected user agent from environment, got %q", account.UserAgent)
	}
}

func TestRetrieveDefaultFallsBackToStored(t *testing.T) {
	t.Setenv("IGPROFILES_SESSION_ID", "")
	t.Setenv("IGPROFILES_CSRF_TOKEN", "")

	manager := NewManagerWithStores(NewMockStore(), NewEnvironmentStore())

	stored := &Account{Username: "stored", SessionID: "stored_sid", CSRFToken: "stored_csrf"}
	if err := manager.Store(stored); err != nil {
		t.Fatal(err)
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		t.Fatalf("Expected the stored account: %v", err)
	}
	if account.Username != "stored" {
		t.Errorf("Unexpected default account: %+v", account)
	}
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv("IGPROFILES_VAULT_KEY", "test-vault-passphrase")

	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := &Account{
		Username:     "encuser",
		SessionID:    "enc_session_id",
		CSRFToken:    "enc_csrf_token",
		LastModified: time.Now(),
	}

	if err := store.Store(account); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}

	if !store.Exists("encuser") {
		t.Error("Expected stored account to exist")
	}

	retrieved, err := store.Retrieve("encuser")
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if retrieved.SessionID != "enc_session_id" {
		t.Errorf("Expected decrypted session ID, got %s", retrieved.SessionID)
	}

	// A fresh store over the same file must decrypt it too
	reopened, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reopened.Retrieve("encuser"); err != nil {
		t.Errorf("Failed to retrieve after reopen: %v", err)
	}

	if err := store.Delete("encuser"); err != nil {
		t.Errorf("Failed to delete: %v", err)
	}
	if store.Exists("encuser") {
		t.Error("Expected deleted account to be gone")
	}
}

func TestEnvironmentStoreIsReadOnly(t *testing.T) {
	store := NewEnvironmentStore()

	if err := store.Store(&Account{Username: "x", SessionID: "s", CSRFToken: "c"}); err == nil {
		t.Error("Expected Store to be rejected")
	}
	if err := store.Delete("x"); err == nil {
		t.Error("Expected Delete to be rejected")
	}
}
