package queue

import "github.com/k333333v-jpg/martinez-walker-checkin/internal/models"

var transitionMap = map[string][]string{
	"assign_next": {models.StatusWaiting},
	"complete":    {models.StatusInService},
}

// ValidTransition reports whether an action may be applied to a client in
// the given status.
func ValidTransition(action, fromStatus string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}
