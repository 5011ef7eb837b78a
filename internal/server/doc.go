// Package server runs a development implementation of the booking sheet endpoint.
//
// # Endpoint
//
// The real endpoint is a spreadsheet web app with a single URL. [SheetHandler] reproduces it over SQLite:
//
//   - GET / returns every row as a JSON array. Songs are a JSON-encoded string and notes are returned as stored.
//   - POST / takes a command object and always answers with {"status": ..., "message": ..., "id": ...}.
//
// Commands are dispatched by their action: authenticate, register and resetPassword work on accounts with bcrypt
// password hashes; add, edit, delete and archive work on rows. Unknown actions answer with an error status.
//
// # Router
//
// [NewRouter] builds a chi router with request ids, request logging through [LogRequests] and panic recovery.
// Handlers implement [Handler] to register their own routes.
//
// [ListenAndServe] runs the router until its context ends and then shuts down gracefully.
package server
