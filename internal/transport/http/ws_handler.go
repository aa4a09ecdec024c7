package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"exam-prep-service/internal/app"
	"exam-prep-service/internal/domain"
	"exam-prep-service/internal/ingest"
)

// ImportStreamHandler runs imports over a websocket and streams per-item
// progress back to the client.
type ImportStreamHandler struct {
	service  *app.QuestionService
	upgrader websocket.Upgrader
	now      func() time.Time
}

func NewImportStreamHandler(service *app.QuestionService) *ImportStreamHandler {
	return &ImportStreamHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		now: time.Now,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// importPayload carries either JSON/plain text or raw file bytes (base64 in JSON).
type importPayload struct {
	Kind     string `json:"kind"`
	Filename string `json:"filename"`
	Text     string `json:"text"`
	Content  []byte `json:"content"`
	Exam     string `json:"exam"`
	Year     any    `json:"year"`
	Subject  string `json:"subject"`
	Test     string `json:"test"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS accepts "import" messages; each produces a "progress" message per
// item followed by one "result", or an "error".
func (h *ImportStreamHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// drain so senders never block
				for range send {
				}
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "import":
			var payload importPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid import payload"}}
				continue
			}
			h.runImport(r, payload, send)
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(send)
	<-writerDone
}

func (h *ImportStreamHandler) runImport(r *http.Request, payload importPayload, send chan<- outboundMessage[any]) {
	kind, ok := app.ParseKind(payload.Kind)
	if !ok {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: `kind must be "mcq" or "pyq"`}}
		return
	}
	content := payload.Content
	if len(content) == 0 {
		content = []byte(payload.Text)
	}
	name := payload.Filename
	if name == "" {
		name = "upload"
	}

	defaults := ingest.ResolveDefaults(payload.Exam, yearText(payload.Year), payload.Subject, payload.Test, h.now())
	result, err := h.service.ImportFile(r.Context(), kind, name, content, defaults, func(p domain.ImportProgress) {
		send <- outboundMessage[any]{Type: "progress", Payload: p}
	})
	if err != nil {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		return
	}
	send <- outboundMessage[any]{Type: "result", Payload: result.Capped(domain.MaxReportedErrors)}
}

func yearText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
