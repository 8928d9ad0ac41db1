package consul

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/formz"
)

// kvServer answers Consul KV reads for a single key, holding blocking
// queries until the key changes.
type kvServer struct {
	mu      sync.Mutex
	key     string
	value   []byte
	exists  bool
	index   uint64
	changed chan struct{}
	fail    int
}

func newKVServer(t *testing.T, key string) (*kvServer, *api.Client) {
	t.Helper()
	s := &kvServer{key: key, index: 1, changed: make(chan struct{})}
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	client, err := api.NewClient(&api.Config{Address: srv.URL})
	require.NoError(t, err)
	return s, client
}

func (s *kvServer) put(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = []byte(value)
	s.exists = true
	s.index++
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *kvServer) delete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exists = false
	s.index++
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *kvServer) failNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = n
}

func (s *kvServer) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if strings.TrimPrefix(r.URL.Path, "/v1/kv/") != s.key {
		http.NotFound(rw, r)
		return
	}

	s.mu.Lock()
	if s.fail > 0 {
		s.fail--
		s.mu.Unlock()
		http.Error(rw, "agent unavailable", http.StatusInternalServerError)
		return
	}
	wait, _ := strconv.ParseUint(r.URL.Query().Get("index"), 10, 64)
	changed := s.changed
	current := s.index
	s.mu.Unlock()

	if wait != 0 && wait >= current {
		select {
		case <-changed:
		case <-r.Context().Done():
			return
		case <-time.After(200 * time.Millisecond):
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rw.Header().Set("X-Consul-Index", strconv.FormatUint(s.index, 10))
	rw.Header().Set("X-Consul-LastContact", "0")
	rw.Header().Set("X-Consul-KnownLeader", "true")
	if !s.exists {
		rw.WriteHeader(http.StatusNotFound)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode([]*api.KVPair{{
		Key:         s.key,
		Value:       s.value,
		ModifyIndex: s.index,
	}})
}

func receive(t *testing.T, ch <-chan []byte) string {
	t.Helper()
	select {
	case doc, ok := <-ch:
		require.True(t, ok, "channel closed")
		return string(doc)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for document")
		return ""
	}
}

func TestWatcher_EmitsInitialAndUpdates(t *testing.T) {
	s, client := newKVServer(t, "forms/signup")
	s.put("inputs: [{name: email}]")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := New(client, "forms/signup").Watch(ctx)
	require.NoError(t, err)
	require.Equal(t, "inputs: [{name: email}]", receive(t, ch))

	s.put("inputs: [{name: phone}]")
	require.Equal(t, "inputs: [{name: phone}]", receive(t, ch))
}

func TestWatcher_MissingKeyWaits(t *testing.T) {
	s, client := newKVServer(t, "forms/signup")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := New(client, "forms/signup").Watch(ctx)
	require.NoError(t, err)

	select {
	case doc := <-ch:
		t.Fatalf("expected nothing for a missing key, got %q", doc)
	case <-time.After(50 * time.Millisecond):
	}

	s.put("inputs: []")
	require.Equal(t, "inputs: []", receive(t, ch))
}

func TestWatcher_DeleteEmitsNothing(t *testing.T) {
	s, client := newKVServer(t, "forms/signup")
	s.put("v1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := New(client, "forms/signup").Watch(ctx)
	require.NoError(t, err)
	receive(t, ch)

	s.delete()
	s.put("v2")
	require.Equal(t, "v2", receive(t, ch))
}

func TestWatcher_RetriesFailedQueries(t *testing.T) {
	s, client := newKVServer(t, "forms/signup")
	s.put("v1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := New(client, "forms/signup", WithRetryDelay(5*time.Millisecond)).Watch(ctx)
	require.NoError(t, err)
	receive(t, ch)

	s.failNext(3)
	s.put("v2")
	require.Equal(t, "v2", receive(t, ch))
}

func TestWatcher_UnreachableAgent(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client, err := api.NewClient(&api.Config{Address: srv.URL})
	require.NoError(t, err)

	_, err = New(client, "forms/signup").Watch(context.Background())
	require.Error(t, err)
}

func TestWatcher_ClosesOnCancel(t *testing.T) {
	s, client := newKVServer(t, "forms/signup")
	s.put("v1")

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := New(client, "forms/signup").Watch(ctx)
	require.NoError(t, err)
	receive(t, ch)
	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for close")
	}
}

func TestWatcher_DrivesLiveForm(t *testing.T) {
	s, client := newKVServer(t, "forms/signup")
	s.put(`{"inputs": [{"name": "email", "validators": ["required", "email"]}]}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var form *formz.Form
	live := formz.NewLive(New(client, "forms/signup"), func(inputs []formz.Input) error {
		form = formz.Build(inputs, form)
		return nil
	})
	require.NoError(t, live.Start(ctx))
	require.True(t, form.HasError("required", "email"))
}
