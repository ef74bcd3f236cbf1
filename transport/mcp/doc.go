// Package mcp exposes room introspection as Model Context Protocol tools.
//
// Client is a thin proxy: every tool calls the server's REST API and turns
// the response into text. It can be served over stdio (stdio-mcp command)
// or mounted at POST /mcp on the HTTP server.
//
// Tools:
//   - create_game: POST /createGame
//   - list_rooms: GET /rooms
//   - get_room: GET /rooms/{roomId}
//   - list_rulesets: GET /rulesets
//   - game_instructions: rules and WebSocket protocol, no API call
//
// Playing a game requires a WebSocket connection and is not offered as a
// tool.
package mcp
