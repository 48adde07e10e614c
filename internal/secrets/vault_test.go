package secrets_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/Strob0t/RentMatch/internal/secrets"
)

func TestNewVault_InitialLoad(t *testing.T) {
	v, err := secrets.NewVault(func() (map[string]string, error) {
		return map[string]string{secrets.KeyJWTSecret: "signing", secrets.KeyChatAPIKey: "chat"}, nil
	})
	if err != nil {
		t.Fatalf("NewVault failed: %v", err)
	}
	if got := v.Get(secrets.KeyJWTSecret); got != "signing" {
		t.Fatalf("expected 'signing', got %q", got)
	}
	if got := v.Get("MISSING"); got != "" {
		t.Fatalf("expected empty string for missing key, got %q", got)
	}
}

func TestNewVault_LoaderError(t *testing.T) {
	_, err := secrets.NewVault(func() (map[string]string, error) {
		return nil, errors.New("connection refused")
	})
	if err == nil {
		t.Fatal("expected error from failing loader")
	}
}

func TestVault_ReloadAndGetter(t *testing.T) {
	callCount := 0
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		callCount++
		if callCount == 1 {
			return map[string]string{"TOKEN": "old"}, nil
		}
		return map[string]string{"TOKEN": "new"}, nil
	})

	get := v.Getter("TOKEN")
	if got := get(); got != "old" {
		t.Fatalf("expected 'old', got %q", got)
	}
	if err := v.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if got := get(); got != "new" {
		t.Fatalf("getter should observe reload, got %q", got)
	}
}

func TestVault_ReloadErrorPreservesValues(t *testing.T) {
	callCount := 0
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		callCount++
		if callCount == 1 {
			return map[string]string{"KEY": "original"}, nil
		}
		return nil, errors.New("vault unavailable")
	})

	if err := v.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if got := v.Get("KEY"); got != "original" {
		t.Fatalf("expected 'original' after failed reload, got %q", got)
	}
}

func TestVault_ConcurrentAccess(t *testing.T) {
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		return map[string]string{"K": "V"}, nil
	})

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = v.Get("K")
		}()
		go func() {
			defer wg.Done()
			_ = v.Reload()
		}()
	}
	wg.Wait()
}

func TestVault_Require(t *testing.T) {
	v, _ := secrets.NewVault(secrets.StaticLoader(map[string]string{"A": "1", "B": ""}))

	if err := v.Require("A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := v.Require("A", "B", "C")
	if err == nil {
		t.Fatal("expected error for missing keys")
	}
	if got := err.Error(); got != "missing secrets: B, C" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestVault_RedactedAndKeys(t *testing.T) {
	v, _ := secrets.NewVault(secrets.StaticLoader(map[string]string{
		"API_KEY": "sk-abcdef123456",
		"SHORT":   "ab",
	}))

	if got := v.Redacted("API_KEY"); got != "sk****" {
		t.Errorf("expected 'sk****', got %q", got)
	}
	if got := v.Redacted("SHORT"); got != "****" {
		t.Errorf("expected '****', got %q", got)
	}
	if got := v.Redacted("MISSING"); got != "" {
		t.Errorf("expected empty string for missing key, got %q", got)
	}

	keys := v.Keys()
	if len(keys) != 2 || keys[0] != "API_KEY" || keys[1] != "SHORT" {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestEnvLoader(t *testing.T) {
	t.Setenv("RM_TEST_SECRET", "mysecret")
	vals, err := secrets.EnvLoader("RM_TEST_SECRET", "RM_MISSING_SECRET")()
	if err != nil {
		t.Fatalf("EnvLoader failed: %v", err)
	}
	if vals["RM_TEST_SECRET"] != "mysecret" {
		t.Fatalf("expected 'mysecret', got %q", vals["RM_TEST_SECRET"])
	}
	if _, ok := vals["RM_MISSING_SECRET"]; ok {
		t.Fatal("missing variable should be omitted")
	}
}

func TestChain_LaterWins(t *testing.T) {
	t.Setenv(secrets.KeyJWTSecret, "from-env")
	loader := secrets.Chain(
		secrets.StaticLoader(map[string]string{
			secrets.KeyJWTSecret:  "from-config",
			secrets.KeyChatAPIKey: "chat-config",
		}),
		secrets.EnvLoader(secrets.KeyJWTSecret, secrets.KeyChatAPIKey),
	)
	vals, err := loader()
	if err != nil {
		t.Fatalf("Chain failed: %v", err)
	}
	if vals[secrets.KeyJWTSecret] != "from-env" {
		t.Errorf("env should override config, got %q", vals[secrets.KeyJWTSecret])
	}
	if vals[secrets.KeyChatAPIKey] != "chat-config" {
		t.Errorf("config value should survive when env is unset, got %q", vals[secrets.KeyChatAPIKey])
	}
}

func TestChain_AllFail(t *testing.T) {
	fail := func() (map[string]string, error) { return nil, errors.New("down") }
	if _, err := secrets.Chain(fail, fail)(); err == nil {
		t.Fatal("expected error when every loader fails")
	}
	vals, err := secrets.Chain(fail, secrets.StaticLoader(map[string]string{"K": "v"}))()
	if err != nil || vals["K"] != "v" {
		t.Fatalf("partial failure should still load: %v %v", vals, err)
	}
}
