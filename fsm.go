package goSession

// legalTransitions lists the statuses reachable from each status. Nothing
// returns to idle.
var legalTransitions = [...][]Status{
	StatusIdle:            {StatusLoading},
	StatusLoading:         {StatusAuthenticated, StatusUnauthenticated, StatusError},
	StatusAuthenticated:   {StatusAuthenticated, StatusUnauthenticated, StatusError, StatusLoading},
	StatusUnauthenticated: {StatusAuthenticated, StatusUnauthenticated, StatusError, StatusLoading},
	StatusError:           {StatusLoading, StatusAuthenticated, StatusUnauthenticated, StatusError},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	if int(from) >= len(legalTransitions) {
		return false
	}
	for _, s := range legalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
