package workflow

// Aggregate derives a request status from the statuses of its items.
// Rules are evaluated in order and the first match wins:
//
//	any revision              -> revision
//	any rejected              -> rejected
//	all pending               -> pending
//	all verified              -> verified
//	all approved              -> approved
//	only verified + approved  -> verified
//	anything else             -> pending
//
// ok is false when items is empty; the caller keeps the stored status.
func Aggregate(items []Status) (status Status, ok bool) {
	if len(items) == 0 {
		return "", false
	}

	counts := make(map[Status]int, len(AllStatuses))
	for _, s := range items {
		counts[s]++
	}
	total := len(items)

	switch {
	case counts[StatusRevision] > 0:
		return StatusRevision, true
	case counts[StatusRejected] > 0:
		return StatusRejected, true
	case counts[StatusPending] == total:
		return StatusPending, true
	case counts[StatusVerified] == total:
		return StatusVerified, true
	case counts[StatusApproved] == total:
		return StatusApproved, true
	case counts[StatusVerified] > 0 && counts[StatusApproved] > 0 &&
		counts[StatusVerified]+counts[StatusApproved] == total:
		return StatusVerified, true
	}
	return StatusPending, true
}
