// Package presence tracks which users currently hold a live realtime connection.
package presence

import (
	"slices"
	"sync"
)

func NewRegistry() *Registry {
	return &Registry{
		byUser:       make(map[string]string),
		byConnection: make(map[string]string),
	}
}

// Registry maps user ids to connection ids and back. A user has at most one connection and a
// connection belongs to at most one user; the most recent registration wins.
type Registry struct {
	lock         sync.RWMutex
	byUser       map[string]string
	byConnection map[string]string
}

// Register binds connectionID to userID. A previous connection of the user and a previous user of
// the connection are both forgotten.
func (r *Registry) Register(userID, connectionID string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if previousConnection, ok := r.byUser[userID]; ok {
		delete(r.byConnection, previousConnection)
	}
	if previousUser, ok := r.byConnection[connectionID]; ok {
		delete(r.byUser, previousUser)
	}

	r.byUser[userID] = connectionID
	r.byConnection[connectionID] = userID
}

func (r *Registry) Resolve(userID string) (string, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	connectionID, ok := r.byUser[userID]
	return connectionID, ok
}

// Unregister forgets the connection and returns the user it was bound to. Connections that were
// replaced by a newer registration of the same user are no longer bound and leave the user online.
func (r *Registry) Unregister(connectionID string) (string, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	userID, ok := r.byConnection[connectionID]
	if !ok {
		return "", false
	}

	delete(r.byConnection, connectionID)
	delete(r.byUser, userID)
	return userID, true
}

func (r *Registry) IsOnline(userID string) bool {
	_, ok := r.Resolve(userID)
	return ok
}

// Online returns the ids of all registered users in ascending order.
func (r *Registry) Online() []string {
	r.lock.RLock()
	users := make([]string, 0, len(r.byUser))
	for userID := range r.byUser {
		users = append(users, userID)
	}
	r.lock.RUnlock()

	slices.Sort(users)
	return users
}

func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.byUser)
}

// Close forgets every registration.
func (r *Registry) Close() {
	r.lock.Lock()
	defer r.lock.Unlock()
	clear(r.byUser)
	clear(r.byConnection)
}
