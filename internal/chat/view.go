package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"arcade/internal/clock"
	"arcade/internal/metrics"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultTimeout      = 10 * time.Second
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrSendInFlight = errors.New("a message is already being sent")
	ErrNoChat       = errors.New("no chat selected")
	ErrClosed       = errors.New("chat view is closed")
)

// Snapshot is what the view renders. Chats is already filtered; Unread
// counts every chat.
type Snapshot struct {
	Chats    []Chat    `json:"chats"`
	Filter   string    `json:"filter,omitempty"`
	Unread   int       `json:"unread"`
	Selected string    `json:"selected,omitempty"`
	Messages []Message `json:"messages"`
	Draft    string    `json:"draft,omitempty"`
	Sending  bool      `json:"sending"`
}

type Config struct {
	UserID       string
	CompanyID    string
	Service      Service
	Clock        clock.Clock
	PollInterval time.Duration
	// Timeout bounds each poll tick's requests.
	Timeout  time.Duration
	OnUpdate func(Snapshot)
}

// View is one user's chat screen. Fetch failures are logged and leave the
// previous state in place; nothing is retried except by the poll.
type View struct {
	mu       sync.Mutex
	cfg      Config
	chats    []Chat
	filter   string
	selected string
	messages []Message
	draft    string
	sending  bool
	poll     clock.Cancel
	closed   bool
}

func NewView(cfg Config) *View {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &View{cfg: cfg}
}

// Open loads the chat list.
func (v *View) Open(ctx context.Context) Snapshot {
	v.refreshChats(ctx)
	return v.publish()
}

// Refresh reloads the list and, if a chat is selected, its messages.
func (v *View) Refresh(ctx context.Context) Snapshot {
	v.mu.Lock()
	chatID := v.selected
	v.mu.Unlock()

	if chatID != "" {
		v.refreshMessages(ctx, chatID)
	}
	v.refreshChats(ctx)
	return v.publish()
}

// Filter narrows the visible list to chats whose peer name contains q,
// ignoring case.
func (v *View) Filter(q string) Snapshot {
	v.mu.Lock()
	v.filter = strings.TrimSpace(q)
	v.mu.Unlock()
	return v.publish()
}

// StartChat asks the service for the chat with colleagueID and selects it.
func (v *View) StartChat(ctx context.Context, colleagueID string) Snapshot {
	c, err := v.cfg.Service.OpenChat(ctx, v.cfg.UserID, colleagueID, v.cfg.CompanyID)
	if err != nil {
		log.Printf("[Chat] %v\n", err)
		return v.Snapshot()
	}
	return v.Select(ctx, c.ID)
}

// Select switches to chatID: its messages are loaded and marked read, the
// list is reloaded, and polling restarts for the new chat.
func (v *View) Select(ctx context.Context, chatID string) Snapshot {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return Snapshot{}
	}
	if chatID != v.selected {
		v.poll.Stop()
		v.selected = chatID
		v.messages = nil
		v.draft = ""
		v.poll = clock.Every(v.cfg.Clock, v.cfg.PollInterval, func() { v.tick(chatID) })
	}
	v.mu.Unlock()

	v.refreshMessages(ctx, chatID)
	if err := v.cfg.Service.MarkRead(ctx, chatID, v.cfg.UserID); err != nil {
		log.Printf("[Chat] %v\n", err)
	}
	v.refreshChats(ctx)
	return v.publish()
}

// Send posts text to the selected chat. On success the draft is cleared and
// messages and list are reloaded; on failure the draft is kept.
func (v *View) Send(ctx context.Context, text string) (Snapshot, error) {
	v.mu.Lock()
	switch {
	case v.closed:
		v.mu.Unlock()
		return Snapshot{}, ErrClosed
	case strings.TrimSpace(text) == "":
		st := v.snapshot()
		v.mu.Unlock()
		return st, ErrEmptyMessage
	case v.selected == "":
		st := v.snapshot()
		v.mu.Unlock()
		return st, ErrNoChat
	case v.sending:
		st := v.snapshot()
		v.mu.Unlock()
		return st, ErrSendInFlight
	}
	chatID := v.selected
	v.sending = true
	v.draft = text
	v.mu.Unlock()
	v.publish()

	_, err := v.cfg.Service.Send(ctx, chatID, v.cfg.UserID, text)

	v.mu.Lock()
	v.sending = false
	if err == nil && v.selected == chatID {
		v.draft = ""
	}
	v.mu.Unlock()

	if err != nil {
		log.Printf("[Chat] %v\n", err)
		return v.publish(), nil
	}
	v.refreshMessages(ctx, chatID)
	v.refreshChats(ctx)
	return v.publish(), nil
}

func (v *View) UnreadTotal() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return unread(v.chats)
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot()
}

// Close stops polling. Later fetch results are dropped.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.poll.Stop()
	v.poll = nil
}

func (v *View) tick(chatID string) {
	v.mu.Lock()
	stale := v.closed || v.selected != chatID
	v.mu.Unlock()
	if stale {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), v.cfg.Timeout)
	defer cancel()
	ok := v.refreshMessages(ctx, chatID)
	ok = v.refreshChats(ctx) && ok
	if ok {
		metrics.ChatPolls.WithLabelValues("ok").Inc()
	} else {
		metrics.ChatPolls.WithLabelValues("failed").Inc()
	}
	v.publish()
}

func (v *View) refreshChats(ctx context.Context) bool {
	chats, err := v.cfg.Service.ListChats(ctx, v.cfg.UserID, v.cfg.CompanyID)
	if err != nil {
		log.Printf("[Chat] %v\n", err)
		return false
	}
	v.mu.Lock()
	if !v.closed {
		v.chats = chats
	}
	v.mu.Unlock()
	return true
}

// refreshMessages applies the result only if chatID is still selected.
func (v *View) refreshMessages(ctx context.Context, chatID string) bool {
	msgs, err := v.cfg.Service.Messages(ctx, chatID)
	if err != nil {
		log.Printf("[Chat] %v\n", err)
		return false
	}
	v.mu.Lock()
	if !v.closed && v.selected == chatID {
		v.messages = msgs
	}
	v.mu.Unlock()
	return true
}

func (v *View) publish() Snapshot {
	v.mu.Lock()
	st := v.snapshot()
	closed := v.closed
	v.mu.Unlock()

	if !closed && v.cfg.OnUpdate != nil {
		v.cfg.OnUpdate(st)
	}
	return st
}

func (v *View) snapshot() Snapshot {
	st := Snapshot{
		Chats:    []Chat{},
		Filter:   v.filter,
		Unread:   unread(v.chats),
		Selected: v.selected,
		Messages: append([]Message{}, v.messages...),
		Draft:    v.draft,
		Sending:  v.sending,
	}
	q := strings.ToLower(v.filter)
	for _, c := range v.chats {
		if q == "" || strings.Contains(strings.ToLower(c.PeerName), q) {
			st.Chats = append(st.Chats, c)
		}
	}
	return st
}

func unread(chats []Chat) int {
	n := 0
	for _, c := range chats {
		n += c.UnreadCount
	}
	return n
}
