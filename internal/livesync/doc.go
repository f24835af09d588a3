// Package livesync keeps a client-side collection of entities in step with a
// stream of backend events.
//
// The collection is seeded by an initial snapshot and kept live by upserts.
// Entities are only ever removed by a full snapshot: the event vocabulary has
// no delete message, so integrators that need prompt removals must arrange for
// the backend to resend a snapshot after deleting.
//
// Upserts carry no version, so the last applied event for an id wins. If the
// transport can reorder frames, a stale update can overwrite a newer one.
package livesync
