// Package chronically is the Chronically news platform: an API server that
// mixes articles and tweets into per-user feeds, and a terminal client.
//
// Binaries:
//
//   - cmd/server: the HTTP API, optionally serving TLS through autocert
//   - cmd/lambda: the same router behind API Gateway
//   - cmd/admin: migrations, seeding, reindexing and account maintenance
//   - cmd/chronically: the terminal client
//
// Server packages live under internal/. The most useful entry points:
//
//   - internal/handlers: HTTP handlers for every route
//   - internal/feed: tweet/article composition
//   - internal/repository: GORM data access
//   - internal/auth: app tokens and Auth0 login
//   - internal/websocket: live follow and share notifications
//   - internal/search: Elasticsearch indexing with a SQL fallback
//   - internal/container: dependency wiring
//
// Client packages live under pkg/.
package chronically
