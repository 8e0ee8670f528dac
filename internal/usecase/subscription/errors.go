// Package subscription provides the use cases behind the push subscription
// API: registering a browser endpoint, reading and updating its delivery
// preferences, unregistering it, and previewing how the eligibility rules
// would treat a given article for it.
package subscription

import "errors"

// ErrSubscriptionNotFound is returned when no subscription exists for the
// requested user ID.
var ErrSubscriptionNotFound = errors.New("subscription not found")
