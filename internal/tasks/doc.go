// Package tasks keeps local booking state in step with the remote sheet.
//
// # Reconciliation
//
// [Engine.Sync] fetches every row and rebuilds the current list for the logged-in identity:
//
//  1. Decode rows (rows without an id are skipped)
//  2. Keep the rows the identity owns (admins see every row with an owner)
//  3. Rename entries whose temporary id was replaced, keep in-flight adds, hide in-flight deletes
//  4. Within the grace window, prefer the local copy of the last optimistically changed booking
//  5. Split by date against today: undated rows are dropped, past rows are archived (users) or dropped (admins)
//  6. Merge the archive: append new past rows, prune ids that left the sheet or are current again
//  7. De-duplicate, sort by day, cache under the identity scope and publish
//
// A failed fetch leaves state untouched. Passes closer together than the minimum interval are skipped.
//
// # Mutations
//
// [Engine.Add], [Engine.Edit] and [Engine.Delete] apply their change locally first, publish it, then send the command.
// On failure the change is rolled back: the full snapshot when no other mutation started since, otherwise only the
// affected booking. Errors are [*MutationError] values carrying a message for display.
//
// # Scheduling
//
// [Scheduler] runs [Engine.Sync] immediately and then on an interval. Edits pause it and resume it after a short delay.
//
// # Notifications
//
// Every change is published as an [Event] through a [Notifier]. Sends use select with default so a slow subscriber
// never blocks the engine.
//
// # Accounts
//
// [Accounts] logs in (locally for the configured admin), registers, resets passwords and persists the identity.
// [Welcome] tracks the first-booking notice and its contact link.
package tasks
