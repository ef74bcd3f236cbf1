// Package websocket carries the battleship session protocol over WebSocket.
//
// A player connects with GET /join/{roomId}/{playerId}. The HTTP layer
// performs the join before upgrading, so a rejected join is a plain HTTP
// error and never opens a socket. Once upgraded, each connection runs two
// goroutines:
//
//   - readPump decodes client frames and submits them to the Gateway. A
//     malformed frame or a rejected command produces an error frame for this
//     client only.
//   - writePump streams the room's updates from the player's outbox, the
//     client's error frames and a ping every 10 seconds.
//
// Message Protocol:
//
// One JSON document per text frame.
//
//	-> {"type":"PlaceShips","placements":[{"ship":"destroyer","coordinates":[{"x":0,"y":0},{"x":1,"y":0}]}]}
//	-> {"type":"AttackShips","coordinate":{"x":3,"y":4}}
//	<- {"event":"state","room_id":"...","state":{...}}
//	<- {"event":"error","room_id":"...","error":{"kind":"not_your_turn","message":"..."}}
//
// Connection Lifecycle:
//
// When the socket closes, readPump unregisters the client from the Hub and
// detaches the outbox from the room, which stops writePump. The player
// stays a member of the game. Cancelling the context passed to Hub.Run
// closes every live connection.
package websocket
