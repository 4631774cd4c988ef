package hybrid

import "github.com/pgtgrly/bombe-mcp/internal/store"

// failureThreshold is how many consecutive remote failures trip the
// breaker open. A failure count below it leaves the breaker half-open,
// which still allows every attempt; an open breaker allows none until
// RecordRemoteSuccess closes it.
const failureThreshold = 5

// ShouldAttemptRemote reports whether a hybrid sync attempt to remote
// should proceed. The local path always succeeds regardless, with the
// response marked mode=local_fallback when the remote is skipped. A
// closed or half-open breaker allows the attempt; an open breaker does
// not.
func ShouldAttemptRemote(s *store.Store, remote string) (bool, error) {
	state, _, err := s.CircuitBreaker(remote)
	if err != nil {
		return false, err
	}
	return state != store.CircuitOpen, nil
}

// RecordRemoteFailure increments the failure count for remote, tripping
// the breaker open once failureThreshold is reached.
func RecordRemoteFailure(s *store.Store, remote string) error {
	_, failures, err := s.CircuitBreaker(remote)
	if err != nil {
		return err
	}
	failures++
	state := store.CircuitClosed
	if failures >= failureThreshold {
		state = store.CircuitOpen
	} else if failures > 0 {
		state = store.CircuitHalfOpen
	}
	if err := s.SetCircuitBreaker(remote, state, failures); err != nil {
		return err
	}
	return s.RecordSyncEvent("remote_failure", remote, "")
}

// RecordRemoteSuccess resets remote's breaker to closed with zero
// failures, letting a recovered remote resume normal traffic immediately.
func RecordRemoteSuccess(s *store.Store, remote string) error {
	if err := s.SetCircuitBreaker(remote, store.CircuitClosed, 0); err != nil {
		return err
	}
	return s.RecordSyncEvent("remote_success", remote, "")
}
