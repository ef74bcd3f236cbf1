// Package api provides the HTTP surface of the battleship server.
//
// Endpoints:
//
//   - POST /createGame[?ruleset=<id>] - create a room, 201 with the room id as plain text
//   - GET /join/{roomId}/{playerId} - join a room and upgrade to WebSocket
//   - GET /rooms - list room summaries
//   - GET /rooms/{roomId} - one room summary with its ruleset
//   - GET /rulesets - list the rulesets rooms can be created with
//   - GET /healthz - liveness, used by the Consul check
//
// Errors are JSON objects of the form {"error": "description"}. Unknown
// rooms are 404, game rejections and unknown rulesets are 400, everything
// else is 500.
//
// A join is attempted before the WebSocket upgrade. A rejected join is
// answered with a regular HTTP error and no socket is opened.
package api
