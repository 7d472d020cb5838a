package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/voicedeskhq/voicedesk/internal/pipeline"
	"github.com/voicedeskhq/voicedesk/internal/services"
)

// MediaWSHandler terminates the telephony media stream: one websocket per
// call, JSON-framed events, base64 mu-law payloads at 8 kHz.
type MediaWSHandler struct {
	deps     pipeline.Deps
	sessions *pipeline.Manager
	calls    services.CallService
	log      *logrus.Logger
	upgrader websocket.Upgrader

	// streamToken guards the websocket. The telephony platform cannot send
	// an Authorization header, so the stream URL carries the token instead.
	streamToken string
}

func NewMediaWSHandler(deps pipeline.Deps, sessions *pipeline.Manager, calls services.CallService, log *logrus.Logger) *MediaWSHandler {
	if log == nil {
		log = logrus.New()
	}
	return &MediaWSHandler{
		deps:     deps,
		sessions: sessions,
		calls:    calls,
		log:      log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // telephony provider connects from its own infra
		},
		streamToken: os.Getenv("MEDIA_STREAM_TOKEN"),
	}
}

// Media stream wire messages, matching the Twilio Media Streams protocol.
type mediaMessage struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid,omitempty"`
	Start     *startMessage `json:"start,omitempty"`
	Media     *mediaPayload `json:"media,omitempty"`
	Mark      *markMessage  `json:"mark,omitempty"`
	DTMF      *dtmfMessage  `json:"dtmf,omitempty"`
}

type startMessage struct {
	StreamSID    string            `json:"streamSid"`
	AccountSID   string            `json:"accountSid"`
	CallSID      string            `json:"callSid"`
	CustomParams map[string]string `json:"customParameters"`
}

type mediaPayload struct {
	Track     string `json:"track"`
	Timestamp string `json:"timestamp"`
	Payload   string `json:"payload"` // base64 mu-law
}

type markMessage struct {
	Name string `json:"name"`
}

type dtmfMessage struct {
	Digit string `json:"digit"`
}

// mediaConn serializes outbound writes; the session's speak path and the
// handler may both touch the socket.
type mediaConn struct {
	c         *websocket.Conn
	mu        sync.Mutex
	streamSID string
}

func (m *mediaConn) writeJSON(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return m.c.WriteJSON(v)
}

func (m *mediaConn) SendAudio(payloadB64 string) error {
	return m.writeJSON(map[string]any{
		"event":     "media",
		"streamSid": m.streamSID,
		"media":     map[string]string{"payload": payloadB64},
	})
}

func (m *mediaConn) SendMark(name string) error {
	return m.writeJSON(map[string]any{
		"event":     "mark",
		"streamSid": m.streamSID,
		"mark":      map[string]string{"name": name},
	})
}

func (m *mediaConn) Clear() error {
	return m.writeJSON(map[string]any{
		"event":     "clear",
		"streamSid": m.streamSID,
	})
}

// CallStream handles one call's media websocket from connect to stop.
func (h *MediaWSHandler) CallStream(c *gin.Context) {
	if h.streamToken != "" && c.Query("token") != h.streamToken {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote the response in most cases
		return
	}
	defer conn.Close()

	out := &mediaConn{c: conn}

	var sess *pipeline.Session
	var streamSID string
	defer func() {
		if sess != nil {
			sess.End()
			h.sessions.Unregister(streamSID)
		}
	}()

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			if !websocket.IsCloseError(rerr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.WithError(rerr).Debug("media stream read ended")
			}
			return
		}

		var msg mediaMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.log.WithError(err).Warn("dropping malformed media message")
			continue
		}

		switch msg.Event {
		case "connected":
			h.log.Debug("media stream connected")

		case "start":
			if msg.Start == nil || sess != nil {
				continue
			}
			streamSID = msg.Start.StreamSID
			out.streamSID = streamSID
			sess = h.startSession(out, msg.Start)
			if sess == nil {
				return
			}

		case "media":
			if sess == nil || msg.Media == nil || msg.Media.Payload == "" {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(msg.Media.Payload)
			if err != nil {
				h.log.WithError(err).Warn("dropping undecodable audio payload")
				continue
			}
			sess.HandleInboundAudio(raw)

		case "mark":
			if msg.Mark != nil {
				h.log.WithField("mark", msg.Mark.Name).Debug("playback mark acknowledged")
			}

		case "dtmf":
			if msg.DTMF != nil {
				h.log.WithField("digit", msg.DTMF.Digit).Debug("dtmf received")
			}

		case "stop":
			return

		default:
			h.log.WithField("event", msg.Event).Debug("ignoring unknown media event")
		}
	}
}

func (h *MediaWSHandler) startSession(out *mediaConn, start *startMessage) *pipeline.Session {
	params := start.CustomParams

	orgID := params["organization_id"]
	assistantID := params["assistant_id"]
	if orgID == "" || assistantID == "" {
		h.log.WithField("stream_sid", start.StreamSID).Error("media stream missing organization/assistant parameters")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	call, err := h.calls.Start(
		ctx,
		orgID,
		assistantID,
		params["caller_phone"],
		params["direction"],
		start.StreamSID,
	)
	if err != nil {
		h.log.WithError(err).Error("failed to create call record")
		return nil
	}

	cfg := pipeline.Config{
		CallID:         call.CallID,
		OrganizationID: orgID,
		AssistantID:    assistantID,
		CallerPhone:    params["caller_phone"],
		Direction:      call.Direction,
		Language:       params["language"],
		Greeting:       params["greeting"],
		SystemPrompt:   params["system_prompt"],
	}

	sess := pipeline.NewSession(cfg, out, h.deps)
	h.sessions.Register(start.StreamSID, sess)

	if err := sess.Start(); err != nil {
		h.log.WithError(err).Error("failed to start call session")
		sess.End()
		h.sessions.Unregister(start.StreamSID)
		return nil
	}
	return sess
}
