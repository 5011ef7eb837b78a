// Package repositories implements SQLite persistence for the booking client and the development sheet server.
//
// Client storage (client schema):
//   - [BookingCache] : last reconciled list of current bookings per identity scope, in display order
//   - [ArchiveRepository] : bookings whose day has passed, shared across identities and unique by id
//   - [PreferenceRepository] : string markers such as the logged-in identity and first-booking state
//
// Server storage (server schema):
//   - [SheetRepository] : spreadsheet rows as the endpoint stores them
//   - [AccountRepository] : bcrypt password hashes
//
// Songs are stored as JSON text and decoded with [models.DecodeSongs], so a damaged column degrades to an empty list.
package repositories
