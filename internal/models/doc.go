// Package models defines the booking domain types shared by the sync engine, local cache, and development sheet server.
//
// The package contains three categories of types:
//
// 1. Domain values: typed bookings used everywhere past the wire boundary
//   - [Booking] : One event booking (date, venue, contact, zaffa choices, songs, notes, owner)
//   - [Day] : A calendar day compared at day granularity in UTC
//   - [Identity] : The logged-in username and its [Role]
//
// 2. Wire types: the loosely typed spreadsheet row and the command envelopes
//   - [RawBooking] : One row as returned by the sheet endpoint; [RawBooking.Decode] is the only way in
//   - [Command] : The JSON body posted to the endpoint, selected by its action field
//   - [CommandResult] : The status object returned for every command
//
// 3. Input and comparison helpers
//   - [Draft] : User input for an add or edit, validated against [Rules]
//   - [Changes] : Field-level diff between an original and an updated booking
//
// Songs travel over the wire as a JSON-encoded string. [DecodeSongs] never fails: malformed input
// degrades to an empty list.
package models
