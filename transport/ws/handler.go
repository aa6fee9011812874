package ws

import (
	"chat-broadcast/domain/chat"
	"chat-broadcast/domain/event"
	"chat-broadcast/errors"
	"chat-broadcast/services"
	"chat-broadcast/session"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type Options struct {
	Group            chat.Group
	BufferSize       int
	WriteTimeout     time.Duration
	PongWait         time.Duration
	MaxContentLength int
}

// frameOverhead leaves room for the JSON keys and the user name around the message.
const frameOverhead = 1024

// FrameLimit bounds the bytes of an inbound frame or request body for a message of
// maxContentLength characters, 12 bytes being the widest JSON or form encoding of one.
// Zero means unbounded.
func FrameLimit(maxContentLength int) int64 {
	if maxContentLength <= 0 {
		return 0
	}
	return int64(maxContentLength)*12 + frameOverhead
}

type MessagesPage struct {
	Messages   []event.OutboundMessage `json:"messages"`
	NextCursor *string                 `json:"next_cursor,omitempty"`
}

// Handler routes the websocket endpoint and the HTTP message endpoints of one group.
type Handler struct {
	log       *slog.Logger
	service   services.IChatService
	parser    *chat.Parser
	formatter chat.TimestampFormatter
	options   Options
	upgrader  websocket.Upgrader
	mux       *http.ServeMux
}

func NewHandler(log *slog.Logger, service services.IChatService, formatter chat.TimestampFormatter, options Options) *Handler {
	h := &Handler{
		log:       log,
		service:   service,
		parser:    chat.NewParser(options.Group, options.MaxContentLength),
		formatter: formatter,
		options:   options,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// No page is served from here, clients come from anywhere
			CheckOrigin: func(*http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /ws", h.serveSession)
	h.mux.HandleFunc("POST /messages", h.postMessage)
	h.mux.HandleFunc("GET /messages", h.getMessages)
	h.mux.HandleFunc("GET /up", h.up)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// serveSession runs the session inside the request: its context ends with the
// server base context, which is how a shutdown reaches hijacked connections.
func (h *Handler) serveSession(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}
	conn := NewConn(wsConn, h.options.WriteTimeout, h.options.PongWait, FrameLimit(h.options.MaxContentLength))
	s := session.New(h.log, conn, h.service, h.parser, h.options.Group, h.options.BufferSize)
	if err := s.Run(r.Context()); err != nil {
		h.log.Debug("Session ended with error", "session_id", s.ID(), "error", err)
	}
}

// postMessage accepts a form or a JSON body and answers with the broadcast frame.
func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request) {
	if limit := FrameLimit(h.options.MaxContentLength); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	in, err := decodeInbound(r)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err))
		return
	}
	cmd, err := h.parser.Validate(in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	evt, _, err := h.service.PostMessage(r.Context(), cmd)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, errors.MapToHTTPStatus(nil), evt.ToOutbound())
}

func (h *Handler) getMessages(w http.ResponseWriter, r *http.Request) {
	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = lo.ToPtr(c)
	}
	messages, next, err := h.service.GetMessages(chat.GetMessageCommand{Cursor: cursor})
	if err != nil {
		h.writeError(w, err)
		return
	}
	page := MessagesPage{
		Messages: lo.Map(messages, func(m chat.ChatMessage, _ int) event.OutboundMessage {
			return event.FromRecord(h.options.Group, m, h.formatter).ToOutbound()
		}),
		NextCursor: next,
	}
	h.writeJSON(w, http.StatusOK, page)
}

func (h *Handler) up(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeInbound(r *http.Request) (chat.InboundMessage, error) {
	var in chat.InboundMessage
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&in)
		return in, err
	}
	if err := r.ParseForm(); err != nil {
		return in, err
	}
	if r.PostForm.Has("message") {
		in.Message = lo.ToPtr(r.PostForm.Get("message"))
	}
	if r.PostForm.Has("user") {
		in.User = lo.ToPtr(r.PostForm.Get("user"))
	}
	return in, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	ack := event.NewErrorAck(h.options.Group, err)
	h.writeJSON(w, errors.MapToHTTPStatus(err), ack.ToFrame())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("Failed to write response", "error", err)
	}
}
