package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"dooto/internal/config"
	applog "dooto/internal/log"
)

func TestBackendType_IsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("sheets").IsValid() {
		t.Error("sheets is not a data backend")
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("unknown backend should fail")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:    "remote",
		BackendURL:     "http://api.local",
		BackendTimeout: 3 * time.Second,
		UserCacheSize:  10,
		AMQPQueue:      "q",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != RemoteBackend || cfg.BaseURL != "http://api.local" || cfg.Timeout != 3*time.Second || cfg.AMQPQueue != "q" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryBackend}, ""},
		{"remote ok", Config{Type: RemoteBackend, BaseURL: "http://x"}, ""},
		{"remote without url", Config{Type: RemoteBackend}, "base URL"},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, "AMQP"},
		{"bad type", Config{Type: "nope"}, "invalid backend type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	apis, err := NewFactory(applog.Discard()).CreateBackend(context.Background(), Config{Type: MemoryBackend, UserCacheTTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	defer apis.Close()

	ctx := context.Background()
	if res := apis.Users.Login(ctx, "demo", "demo123"); !res.OK {
		t.Fatalf("demo login = %+v", res)
	}
	user := apis.Users.GetByUsername(ctx, "demo")
	if !user.OK {
		t.Fatalf("GetByUsername = %+v", user)
	}
	txs, err := apis.Transactions.List(ctx, user.Data.ID)
	if err != nil || len(txs) == 0 {
		t.Fatalf("List() = %d, %v", len(txs), err)
	}
	if len(apis.Cleaners) != 2 {
		t.Errorf("cleaners = %d, want user and owner caches", len(apis.Cleaners))
	}
}

func TestCreateBackend_RemoteCachesUserLookups(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/users/by-username/") {
			hits.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":4,"username":"alice","email":"a@x.vn"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	apis, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:          RemoteBackend,
		BaseURL:       srv.URL,
		Timeout:       time.Second,
		UserCacheTTL:  time.Minute,
		UserCacheSize: 5,
		// unreachable redis falls back to the LRU
		RedisURL: "redis://127.0.0.1:1/0",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer apis.Close()

	for i := 0; i < 3; i++ {
		if res := apis.Users.GetByUsername(context.Background(), "alice"); !res.OK || res.Data.ID != 4 {
			t.Fatalf("GetByUsername = %+v", res)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("backend hits = %d, want 1", hits.Load())
	}
}

func TestCreateBackend_ZeroTTLDisablesUserCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":4,"username":"alice","email":"a@x.vn"}`))
	}))
	defer srv.Close()

	apis, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:    RemoteBackend,
		BaseURL: srv.URL,
		Timeout: time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer apis.Close()

	for i := 0; i < 3; i++ {
		apis.Users.GetByUsername(context.Background(), "alice")
	}
	if hits.Load() != 3 {
		t.Errorf("backend hits = %d, want 3", hits.Load())
	}
	// only the transaction owner cache
	if len(apis.Cleaners) != 1 {
		t.Errorf("cleaners = %d, want 1", len(apis.Cleaners))
	}
}

func TestAPIs_CloseNil(t *testing.T) {
	var apis *APIs
	if err := apis.Close(); err != nil {
		t.Error(err)
	}
}
