package coordinator

// Badge is the operator-visible affordance that signals a waiting
// transaction. The gateway implements it by pushing to connected panels.
type Badge interface {
	Set(text string)
	Clear()
}

// BadgePending is the badge text while a transaction awaits a decision.
const BadgePending = "!"

// NopBadge ignores all updates. Used headless and in tests that do not
// assert on the badge.
type NopBadge struct{}

func (NopBadge) Set(string) {}
func (NopBadge) Clear()     {}
