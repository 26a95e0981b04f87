// Package http provides the HTTP surface of the scheduler.
//
// The router exposes:
//   - GET /health: liveness. Response: {"ok","rooms","backend","connections","rssBytes"}.
//   - GET /ws: upgrades to the realtime command channel served by package realtime.
//   - GET /: static client assets when a static directory is configured and exists.
//
// Everything else about sessions travels over the WebSocket; there is no REST
// API for rooms.
package http
