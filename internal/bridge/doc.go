// Package bridge mediates between one page realm and the coordinator.
//
// The bridge is the first trustworthy context a page message reaches: it
// rejects frames whose source is not its own window, and it stamps the
// pending transaction with the origin read from its own navigation context
// rather than anything page code supplied.
//
// Policy lives here too. When interception is disabled, or the coordinator
// cannot be reached at all, the bridge synthesizes an approve and hands it
// straight back to the page. It fails open on purpose: blocking a user's
// wallet indefinitely is worse than skipping one review.
package bridge
