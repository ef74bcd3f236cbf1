package websocket

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/battleship-server/game/engine"
	"github.com/wricardo/battleship-server/game/room"
)

// Client is one player's connection to a room
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	gateway  Gateway
	roomID   string
	playerID engine.PlayerID

	// outbox is fed by the room; errs carries rejections for this client only
	outbox room.Outbox
	errs   chan ServerMessage

	logger *slog.Logger
}

// readPump decodes client frames and submits them as commands. It owns
// the disconnect: on exit the client is unregistered and its outbox
// detached from the room, which closes it and stops writePump.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		if err := c.gateway.LeaveRoom(context.Background(), c.roomID, c.playerID, c.outbox); err != nil {
			c.logger.Debug("leave after disconnect", "error", err)
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		if err := c.handle(data); err != nil {
			c.sendError(err)
		}
	}
}

func (c *Client) handle(data []byte) error {
	msg, err := DecodeClientMessage(data)
	if err != nil {
		return err
	}

	ctx := context.Background()
	switch msg.Type {
	case TypePlaceShips:
		return c.gateway.PlaceShips(ctx, c.roomID, c.playerID, msg.Placements)
	default:
		return c.gateway.AttackShips(ctx, c.roomID, c.playerID, *msg.Coordinate)
	}
}

// sendError queues an error frame for this client. If the queue is full the
// frame is dropped.
func (c *Client) sendError(err error) {
	frame := errorFrame(c.roomID, err)
	select {
	case c.errs <- frame:
	default:
		c.logger.Warn("error queue full, dropping frame", "kind", frame.Error.Kind)
	}
}

// writePump streams room updates and local errors to the connection and
// pings the peer every hub ping period.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case update, ok := <-c.outbox:
			if !ok {
				// The room detached this outbox
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(stateFrame(update)); err != nil {
				return
			}

		case frame := <-c.errs:
			if err := c.write(frame); err != nil {
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

func (c *Client) write(msg ServerMessage) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		c.logger.Debug("websocket write failed", "error", err)
		return err
	}
	return nil
}
