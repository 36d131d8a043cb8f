package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	endpointI             = "/api/i"
	endpointLocalTimeline = "/api/notes/local-timeline"
	endpointCreateNote    = "/api/notes/create"
)

// DefaultTimelineLimit is used when no limit is given.
const DefaultTimelineLimit = 30

// NoteParams describes a note to be posted.
type NoteParams struct {
	Text       string
	ReplyID    string
	Visibility string
}

// APIError is returned when the server answers with an error payload.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %d %s %s", e.Status, e.Code, e.Message)
}

type apiErrorResp struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type note struct {
	ID       string  `json:"id"`
	Text     *string `json:"text"`
	UserID   string  `json:"userId"`
	RenoteID *string `json:"renoteId"`
	CW       *string `json:"cw"`
}

type meResp struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type createNoteResp struct {
	CreatedNote note `json:"createdNote"`
}

// Publisher reads the timeline and posts generated notes.
type Publisher struct {
	cfg    Config
	client *http.Client
	logger *logrus.Entry

	mu     sync.Mutex
	selfID string
}

// New creates a Publisher for cfg.Host authenticated with cfg.Token.
func New(cfg Config, client *http.Client, logger *logrus.Entry) (*Publisher, error) {
	if err := cfg.validateAccount(); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = logrus.StandardLogger().WithField("pkg", "publisher")
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	if !strings.HasPrefix(cfg.Host, "http://") && !strings.HasPrefix(cfg.Host, "https://") {
		cfg.Host = "https://" + cfg.Host
	}
	return &Publisher{cfg: cfg, client: client, logger: logger}, nil
}

// FetchTimeline returns the text of recent local notes, oldest first.
// Renotes, notes without text, CW notes and the bot's own notes are skipped.
func (p *Publisher) FetchTimeline(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultTimelineLimit
	}
	self, err := p.self(ctx)
	if err != nil {
		return nil, err
	}
	var notes []note
	if err := p.call(ctx, endpointLocalTimeline, map[string]any{"limit": limit}, &notes); err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(notes))
	// API 按新到旧返回
	for i := len(notes) - 1; i >= 0; i-- {
		n := notes[i]
		if n.Text == nil || *n.Text == "" || n.RenoteID != nil || n.CW != nil || n.UserID == self {
			continue
		}
		texts = append(texts, *n.Text)
	}
	p.logger.WithFields(logrus.Fields{"fetched": len(notes), "kept": len(texts)}).Info("timeline fetched")
	return texts, nil
}

// CreateNote posts a note and returns its ID.
func (p *Publisher) CreateNote(ctx context.Context, params NoteParams) (string, error) {
	if strings.TrimSpace(params.Text) == "" {
		return "", fmt.Errorf("note text is required")
	}
	body := map[string]any{"text": params.Text}
	visibility := params.Visibility
	if visibility == "" {
		visibility = p.cfg.Visibility
	}
	if visibility != "" {
		body["visibility"] = visibility
	}
	if params.ReplyID != "" {
		body["replyId"] = params.ReplyID
	}
	var resp createNoteResp
	if err := p.call(ctx, endpointCreateNote, body, &resp); err != nil {
		return "", err
	}
	if resp.CreatedNote.ID == "" {
		return "", fmt.Errorf("failed to create note: empty id")
	}
	p.logger.WithFields(logrus.Fields{"note_id": resp.CreatedNote.ID, "reply_id": params.ReplyID}).Info("note created")
	return resp.CreatedNote.ID, nil
}

func (p *Publisher) self(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selfID != "" {
		return p.selfID, nil
	}
	var me meResp
	if err := p.call(ctx, endpointI, map[string]any{}, &me); err != nil {
		return "", err
	}
	p.selfID = me.ID
	return me.ID, nil
}

func (p *Publisher) call(ctx context.Context, endpoint string, body map[string]any, out any) error {
	body["i"] = p.cfg.Token
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Host+endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var data apiErrorResp
		_ = json.NewDecoder(resp.Body).Decode(&data)
		return &APIError{Status: resp.StatusCode, Code: data.Error.Code, Message: data.Error.Message}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
