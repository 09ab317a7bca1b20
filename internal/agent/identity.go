package agent

import "sync/atomic"

// Identity holds the agent's registration state for the lifetime of the
// process, updated once by Register and read concurrently by the
// /health endpoint and the heartbeat loop. Per spec §3, there is no
// on-disk persistence — this is in-memory only and empty on every
// restart.
type Identity struct {
	registered atomic.Bool
	id         atomic.Value // string
}

// NewIdentity builds an unregistered Identity.
func NewIdentity() *Identity {
	i := &Identity{}
	i.id.Store("")
	return i
}

// SetRegistered records a successful registration's assigned id.
func (i *Identity) SetRegistered(id string) {
	i.id.Store(id)
	i.registered.Store(true)
}

// Registered reports whether registration has succeeded at least once
// this process lifetime.
func (i *Identity) Registered() bool {
	return i.registered.Load()
}

// AgentID returns the registered agent id, or "" before registration.
func (i *Identity) AgentID() string {
	id, _ := i.id.Load().(string)
	return id
}
