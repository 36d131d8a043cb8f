package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
)

type fakeMisskey struct {
	t        *testing.T
	meCalls  atomic.Int32
	mu       sync.Mutex
	lastNote map[string]any
}

func (f *fakeMisskey) last() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastNote
}

func (f *fakeMisskey) handler() http.Handler {
	mux := http.NewServeMux()
	decode := func(r *http.Request) map[string]any {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			f.t.Errorf("decode: %v", err)
		}
		if body["i"] != "tok" {
			f.t.Errorf("missing token in %v", body)
		}
		return body
	}
	mux.HandleFunc(endpointI, func(w http.ResponseWriter, r *http.Request) {
		decode(r)
		f.meCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "bot", "username": "notegen"})
	})
	mux.HandleFunc(endpointLocalTimeline, func(w http.ResponseWriter, r *http.Request) {
		body := decode(r)
		if body["limit"] != float64(10) {
			f.t.Errorf("limit = %v", body["limit"])
		}
		// 新 → 旧
		_, _ = io.WriteString(w, `[
  {"id":"6","text":"最新の投稿","userId":"u1","renoteId":null,"cw":null},
  {"id":"5","text":"自分の投稿","userId":"bot","renoteId":null,"cw":null},
  {"id":"4","text":null,"userId":"u2","renoteId":"3","cw":null},
  {"id":"3","text":"ネタバレ","userId":"u2","renoteId":null,"cw":"注意"},
  {"id":"2","text":"","userId":"u2","renoteId":null,"cw":null},
  {"id":"1","text":"古い投稿","userId":"u2","renoteId":null,"cw":null}
]`)
	})
	mux.HandleFunc(endpointCreateNote, func(w http.ResponseWriter, r *http.Request) {
		body := decode(r)
		f.mu.Lock()
		f.lastNote = body
		f.mu.Unlock()
		if body["text"] == "fail" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"code":"INVALID_PARAM","message":"bad"}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"createdNote": map[string]any{"id": "n1"}})
	})
	return mux
}

func newTestPublisher(t *testing.T, cfg Config) (*Publisher, *fakeMisskey) {
	t.Helper()
	fake := &fakeMisskey{t: t}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	cfg.Host = srv.URL
	cfg.Token = "tok"
	l := logrus.New()
	l.SetOutput(io.Discard)
	p, err := New(cfg, srv.Client(), logrus.NewEntry(l))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, fake
}

func TestFetchTimeline(t *testing.T) {
	p, fake := newTestPublisher(t, Config{})
	got, err := p.FetchTimeline(context.Background(), 10)
	if err != nil {
		t.Fatalf("FetchTimeline: %v", err)
	}
	if want := []string{"古い投稿", "最新の投稿"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v got %v", want, got)
	}
	if _, err := p.FetchTimeline(context.Background(), 10); err != nil {
		t.Fatalf("FetchTimeline: %v", err)
	}
	if fake.meCalls.Load() != 1 {
		t.Fatalf("self id should be cached, /api/i called %d times", fake.meCalls.Load())
	}
}

func TestCreateNote(t *testing.T) {
	p, fake := newTestPublisher(t, Config{Visibility: "home"})
	id, err := p.CreateNote(context.Background(), NoteParams{Text: "猫が走った。", ReplyID: "r1"})
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if id != "n1" {
		t.Fatalf("id = %q", id)
	}
	if body := fake.last(); body["visibility"] != "home" || body["replyId"] != "r1" {
		t.Fatalf("body = %v", body)
	}

	_, err = p.CreateNote(context.Background(), NoteParams{Text: "fail"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Code != "INVALID_PARAM" {
		t.Fatalf("want APIError got %v", err)
	}

	if _, err := p.CreateNote(context.Background(), NoteParams{Text: "  "}); err == nil {
		t.Fatalf("blank text should fail")
	}
}

func TestNewNormalizesHost(t *testing.T) {
	p, err := New(Config{Host: "misskey.example/", Token: "t"}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.cfg.Host != "https://misskey.example" {
		t.Fatalf("host = %q", p.cfg.Host)
	}
	if _, err := New(Config{Host: "misskey.example"}, nil, nil); err == nil {
		t.Fatalf("missing token should fail")
	}
}
