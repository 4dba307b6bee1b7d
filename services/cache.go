package services

import (
	"context"
	"sync"
	"time"

	"foundhub/database"
	"foundhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// statusCache is a bounded TTL cache for user role/status lookups, checked
// on every authenticated request. Every write path that can change a
// cached value invalidates the entry explicitly instead of waiting out the
// clock.
type statusCache struct {
	mu      sync.Mutex
	entries map[string]statusEntry
	ttl     time.Duration
	max     int
}

type statusEntry struct {
	role    string
	status  string
	expires time.Time
}

func newStatusCache(ttl time.Duration, max int) *statusCache {
	return &statusCache{
		entries: make(map[string]statusEntry),
		ttl:     ttl,
		max:     max,
	}
}

func (c *statusCache) get(key string) (role, status string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[key]
	if !found {
		return "", "", false
	}
	if time.Now().After(entry.expires) {
		delete(c.entries, key)
		return "", "", false
	}
	return entry.role, entry.status, true
}

func (c *statusCache) put(key, role, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.max {
		c.evictLocked()
	}
	c.entries[key] = statusEntry{role: role, status: status, expires: time.Now().Add(c.ttl)}
}

func (c *statusCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// evictLocked drops expired entries, then arbitrary ones until under the
// bound. Callers hold the lock.
func (c *statusCache) evictLocked() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
		}
	}
	for key := range c.entries {
		if len(c.entries) < c.max {
			break
		}
		delete(c.entries, key)
	}
}

var userStatusCache = newStatusCache(5*time.Minute, 1024)

// LookupUserStatus returns a user's role and account status, served from
// the cache when fresh.
func LookupUserStatus(ctx context.Context, userID primitive.ObjectID) (role, status string, err error) {
	key := userID.Hex()
	if role, status, ok := userStatusCache.get(key); ok {
		return role, status, nil
	}

	var user models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": userID},
		options.FindOne().SetProjection(bson.M{"role": 1, "status": 1})).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", err
	}

	userStatusCache.put(key, user.Role, user.Status)
	return user.Role, user.Status, nil
}

// InvalidateUserStatus drops a user's cached role/status. Called whenever
// an admin changes either.
func InvalidateUserStatus(userID primitive.ObjectID) {
	userStatusCache.invalidate(userID.Hex())
}
