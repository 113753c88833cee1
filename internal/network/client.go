package network

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/luparagames/omerta/internal/engine"
	"github.com/luparagames/omerta/internal/events"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// PlayerAction is an incoming command from the client app.
type PlayerAction struct {
	Type     string          `json:"type"`
	PlayerID string          `json:"player_id"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// ActionResult is the direct reply to the acting client. Committed
// domain events additionally go out over the broadcast stream.
type ActionResult struct {
	Type   string         `json:"type"`
	Action string         `json:"action"`
	OK     bool           `json:"ok"`
	Error  string         `json:"error,omitempty"`
	Events []events.Event `json:"events,omitempty"`
	Recap  *engine.Recap  `json:"recap,omitempty"`
}

// Client represents one active WebSocket connection, bound to a player.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	playerID string
}

// NewClient creates a client for an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, playerID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, hub.tun.ClientSendBuffer),
		playerID: playerID,
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump pumps messages from the websocket connection into the engine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("websocket read error: %v", err)
				c.hub.met.RecordWSError()
			}
			break
		}
		c.hub.met.RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Error("Failed to parse PlayerAction: %v", err)
			continue
		}
		c.handlePlayerAction(action)
	}
}

func (c *Client) handlePlayerAction(action PlayerAction) {
	// The connection is bound to one player at upgrade time; a spoofed
	// id in the frame is ignored.
	sess, ok := c.hub.service.Session(c.playerID)
	if !ok {
		c.reply(ActionResult{Type: "result", Action: action.Type, OK: false, Error: "no active session"})
		return
	}

	var (
		evs   []events.Event
		recap *engine.Recap
		err   error
	)

	switch action.Type {
	case "SYNC":
		var r engine.Recap
		r, evs, err = sess.CatchUp()
		recap = &r
	case "COLLECT_INCOME":
		_, evs, err = sess.CollectIncome()
	case "START_BUILD":
		var p struct {
			BusinessID string `json:"business_id"`
		}
		if err = json.Unmarshal(action.Payload, &p); err == nil {
			evs, err = sess.StartBuild(p.BusinessID)
		}
	case "START_UPGRADE":
		var p struct {
			BusinessID string `json:"business_id"`
		}
		if err = json.Unmarshal(action.Payload, &p); err == nil {
			evs, err = sess.StartUpgrade(p.BusinessID)
		}
	case "COMMIT_CRIME":
		var p struct {
			CrimeID string `json:"crime_id"`
		}
		if err = json.Unmarshal(action.Payload, &p); err == nil {
			_, evs, err = sess.CommitCrime(p.CrimeID)
		}
	case "START_ATTACK":
		var p struct {
			TerritoryID string `json:"territory_id"`
			UnitID      string `json:"unit_id"`
			Soldiers    int    `json:"soldiers"`
		}
		if err = json.Unmarshal(action.Payload, &p); err == nil {
			evs, err = sess.StartAttack(p.TerritoryID, p.UnitID, p.Soldiers)
		}
	case "ASSIGN_UNIT":
		var p struct {
			UnitID      string `json:"unit_id"`
			TerritoryID string `json:"territory_id"`
		}
		if err = json.Unmarshal(action.Payload, &p); err == nil {
			evs, err = sess.AssignUnit(p.UnitID, p.TerritoryID)
		}
	case "RECRUIT_SOLDIERS":
		var p struct {
			UnitID string `json:"unit_id"`
			Count  int    `json:"count"`
		}
		if err = json.Unmarshal(action.Payload, &p); err == nil {
			evs, err = sess.RecruitSoldiers(p.UnitID, p.Count)
		}
	case "UNLOCK_FEATURE":
		var p struct {
			BusinessID string `json:"business_id"`
			FeatureID  string `json:"feature_id"`
		}
		if err = json.Unmarshal(action.Payload, &p); err == nil {
			evs, err = sess.UnlockFeature(p.BusinessID, p.FeatureID)
		}
	case "SPEND_ATTRIBUTE":
		var p struct {
			Attribute string `json:"attribute"`
		}
		if err = json.Unmarshal(action.Payload, &p); err == nil {
			err = sess.SpendAttribute(p.Attribute)
		}
	default:
		c.hub.logger.Warn("Unknown PlayerAction type: %s", action.Type)
		c.reply(ActionResult{Type: "result", Action: action.Type, OK: false, Error: "unknown action"})
		return
	}

	res := ActionResult{Type: "result", Action: action.Type, OK: err == nil, Events: evs, Recap: recap}
	if err != nil {
		res.Error = errorCode(err)
		c.hub.logger.Event(action.Type, c.playerID, "rejected: "+res.Error)
	} else {
		c.hub.logger.Event(action.Type, c.playerID, "ok")
	}
	c.reply(res)
}

// errorCode maps engine sentinels to stable client-facing codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, engine.ErrInsufficientEnergy):
		return "INSUFFICIENT_ENERGY"
	case errors.Is(err, engine.ErrActionInProgress):
		return "ACTION_IN_PROGRESS"
	case errors.Is(err, engine.ErrCooldownActive):
		return "COOLDOWN_ACTIVE"
	case errors.Is(err, engine.ErrRequirementNotMet):
		return "REQUIREMENT_NOT_MET"
	case errors.Is(err, engine.ErrInsufficientForces):
		return "INSUFFICIENT_FORCES"
	case errors.Is(err, engine.ErrNotFound):
		return "NOT_FOUND"
	}
	return "INVALID_REQUEST"
}

func (c *Client) reply(res ActionResult) {
	payload, err := json.Marshal(res)
	if err != nil {
		c.hub.logger.Error("Failed to serialize ActionResult: %v", err)
		return
	}
	select {
	case c.send <- payload:
		c.hub.met.RecordWSMessage(false)
	default:
		c.hub.met.RecordWSError()
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
