// Package panel is the decision UI's protocol client.
//
// The panel opens on demand, so it can never assume it saw the push that
// created the pending entry; it always asks the coordinator for the
// current one. Presentation is someone else's problem; the only
// protocol-relevant behaviors here are the get-pending query on open, the
// optional analysis trigger, and recording exactly one decision.
package panel
