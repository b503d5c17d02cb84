// Package blogify implements the client-side core of the Blogify platform:
// the identity and session lifecycle, durable session persistence, role-gated
// access decisions, and the notification read-state ledger.
//
// Identity lifecycle:
//   - A visitor starts Anonymous, moves to PendingVerification after a
//     successful signup, and becomes Authenticated once the emailed OTP is
//     confirmed (or directly via Login). SessionManager centralizes the
//     transition graph, persists the session through a SessionStore, and
//     rehydrates it on process start.
//   - Pending signups are held in memory only. A restart during the OTP
//     window returns the visitor to Anonymous and signup must be restarted.
//
// Access control:
//   - Guard derives, for any requested route, whether the current identity
//     may proceed. Decisions are advisory: the backend independently enforces
//     authorization on every privileged request, and privileged calls from an
//     under-privileged identity fail with a forbidden error.
//
// Notifications:
//   - Ledger projects the backend's notification set for the authenticated
//     identity. The unread count is always recomputed from the set, and
//     mark-as-read applies optimistically with rollback on confirmation
//     failure.
//
// Activity sinks:
//   - ActivitySink is a light-weight event emitter used by SessionManager and
//     Ledger to describe lifecycle and notification events. Sinks run
//     best-effort (errors are logged) so subscribers such as UI badges never
//     block the triggering operation.
package blogify
