package pricing

import (
	"context"
	"time"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// DefaultRuleCacheTTL is how long a session keeps its resolved rule
const DefaultRuleCacheTTL = time.Minute

// RuleLookup loads the rule of a role; nil with no error means the
// role has no rule
type RuleLookup func(ctx context.Context, roleSlug string) (*model.Rule, error)

type cachedRule struct {
	role string
	rule *model.Rule
}

// RuleCache memoizes the active rule of each browsing session.
// Entries expire after the TTL and are dropped on login and logout.
// Rule edits are not pushed into the cache, so sessions may see a
// stale rule for up to one TTL.
type RuleCache struct {
	entries *gocache.Cache
	ttl     time.Duration
}

// NewRuleCache creates a cache whose entries live for ttl
func NewRuleCache(ttl time.Duration) *RuleCache {
	if ttl <= 0 {
		ttl = DefaultRuleCacheTTL
	}
	return &RuleCache{
		entries: gocache.New(ttl, 2*ttl),
		ttl:     ttl,
	}
}

// TTL returns the configured staleness window
func (c *RuleCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached rule of the session if it was cached for the
// same role
func (c *RuleCache) Get(sessionID, roleSlug string) (*model.Rule, bool) {
	v, ok := c.entries.Get(sessionID)
	if !ok {
		return nil, false
	}
	entry := v.(cachedRule)
	if entry.role != roleSlug {
		return nil, false
	}
	return entry.rule, true
}

// Set stores the rule resolved for the session. A nil rule is cached
// as well so roles without a rule do not hit the store on every price.
func (c *RuleCache) Set(sessionID, roleSlug string, rule *model.Rule) {
	c.entries.Set(sessionID, cachedRule{role: roleSlug, rule: rule}, gocache.DefaultExpiration)
}

// Invalidate drops the session's entry
func (c *RuleCache) Invalidate(sessionID string) {
	if sessionID == "" {
		return
	}
	c.entries.Delete(sessionID)
	log.Debug().Str("session", sessionID).Msg("Rule cache entry invalidated")
}

// Flush drops every entry
func (c *RuleCache) Flush() {
	c.entries.Flush()
}

// Lookup returns the session's rule, loading it through load on a miss.
// Requests without a session bypass the cache.
func (c *RuleCache) Lookup(ctx context.Context, sessionID, roleSlug string, load RuleLookup) (*model.Rule, error) {
	if sessionID != "" {
		if rule, ok := c.Get(sessionID, roleSlug); ok {
			return rule, nil
		}
	}

	rule, err := load(ctx, roleSlug)
	if err != nil {
		return nil, err
	}
	if rule != nil && !rule.Active {
		rule = nil
	}

	if sessionID != "" {
		c.Set(sessionID, roleSlug, rule)
	}
	return rule, nil
}
