package backendapi

import "time"

// Summary aggregates a shopper's subscription history.
type Summary struct {
	SubscriptionCount int        `json:"subscriptionCount"`
	TotalSpend        int        `json:"totalSpend"`
	TotalSavings      int        `json:"totalSavings"`
	AverageSavings    int        `json:"averageSavings"`
	LastOrderAt       *time.Time `json:"lastOrderAt,omitempty"`
}

// Summarize folds subscriptions into headline figures. Average savings
// is rounded half up over all subscriptions, paid or not; spend counts
// only completed payments.
func Summarize(subs []Subscription) Summary {
	var summary Summary
	summary.SubscriptionCount = len(subs)

	for i := range subs {
		sub := &subs[i]
		summary.TotalSavings += sub.TotalSavings
		if sub.Active() {
			summary.TotalSpend += sub.GrandTotal
		}
		if !sub.CreatedAt.IsZero() {
			if summary.LastOrderAt == nil || sub.CreatedAt.After(*summary.LastOrderAt) {
				created := sub.CreatedAt
				summary.LastOrderAt = &created
			}
		}
	}

	if len(subs) > 0 {
		n := len(subs)
		summary.AverageSavings = (summary.TotalSavings*2 + n) / (n * 2)
	}

	return summary
}
