// Package services implements the client for the remote booking sheet.
//
// # Endpoint
//
// The sheet is a single URL. GET returns every row as a JSON array; POST accepts one JSON command whose
// action field selects the behavior and answers with a status object.
//
// [APIService] is the raw transport, also used by the api debug commands. POST bodies are sent with
// Content-Type text/plain so the request stays a "simple" cross-origin request for hosted script endpoints.
//
// # Store
//
// [SheetService] implements [Store] on top of [APIService]:
//   - [SheetService.FetchAll] : GET, decoded into [models.RawBooking] rows (decoding to bookings happens in the caller)
//   - [SheetService.Send] : POST a [models.Command], decoded into [models.CommandResult]
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : transport failure, non-2xx status, or unparseable body
//   - [shared.ErrCommandRejected] : well-formed response whose status is not "success"
//
// Mutation callers treat both the same way. There are no retries.
package services
