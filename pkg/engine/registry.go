package engine

import (
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/stleox/tracuni/pkg/config"
	"github.com/stleox/tracuni/pkg/schema"
)

type entry struct {
	variant schema.Variant
	rules   schema.RuleSet
	// registration order, breaks ties inside a tier
	order int
}

type selectKey struct {
	variant schema.Variant
	stage   schema.Stage
}

// Registry maps variants to rule sets. It is filled at startup, sealed, and
// then only read.
type Registry struct {
	mu         sync.RWMutex
	entries    map[schema.Variant]*entry
	precedence []schema.Tier
	sealed     bool

	// cache: (Variant, Stage) -> RuleSet
	cache *lru.Cache[selectKey, schema.RuleSet]
}

type RegistryOption func(reg *Registry)

// WithPrecedence changes the order in which tiers of matching rule sets are
// concatenated. Tiers left out are appended in default order.
func WithPrecedence(tiers ...schema.Tier) RegistryOption {
	return func(reg *Registry) {
		seen := make(map[schema.Tier]bool, len(tiers))
		order := make([]schema.Tier, 0, len(schema.DefaultPrecedence))
		for _, t := range tiers {
			if !seen[t] {
				seen[t] = true
				order = append(order, t)
			}
		}
		for _, t := range schema.DefaultPrecedence {
			if !seen[t] {
				order = append(order, t)
			}
		}
		reg.precedence = order
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	reg := &Registry{
		entries:    make(map[schema.Variant]*entry),
		precedence: schema.DefaultPrecedence,
	}
	reg.cache, _ = lru.New[selectKey, schema.RuleSet](config.MaxSelectCache)
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// Register validates rules and appends them to the set of variant. Nothing is
// added when any rule is invalid.
func (reg *Registry) Register(variant schema.Variant, rules schema.RuleSet) error {
	if !variant.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidVariant, variant)
	}
	if err := schema.ValidateSet(rules); err != nil {
		return fmt.Errorf("registering %s: %w", variant, err)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.sealed {
		return ErrSealed
	}
	e, ok := reg.entries[variant]
	if !ok {
		e = &entry{variant: variant, order: len(reg.entries)}
		reg.entries[variant] = e
	}
	e.rules = append(e.rules, rules...)
	reg.cache.Purge()
	return nil
}

// RegisterAny is Register for loosely typed elements.
func (reg *Registry) RegisterAny(variant schema.Variant, elems ...any) error {
	rules, err := schema.NewRuleSet(elems...)
	if err != nil {
		return fmt.Errorf("registering %s: %w", variant, err)
	}
	return reg.Register(variant, rules)
}

// MustRegister panics on configuration errors. For static rule tables.
func (reg *Registry) MustRegister(variant schema.Variant, rules schema.RuleSet) *Registry {
	if err := reg.Register(variant, rules); err != nil {
		panic(err)
	}
	return reg
}

// Seal forbids further registration.
func (reg *Registry) Seal() *Registry {
	reg.mu.Lock()
	reg.sealed = true
	reg.mu.Unlock()
	return reg
}

func (reg *Registry) Sealed() bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.sealed
}

// matching returns the entries matching variant in precedence order.
func (reg *Registry) matching(variant schema.Variant) []*entry {
	matched := make([]*entry, 0, 4)
	for key, e := range reg.entries {
		if key.Matches(variant) {
			matched = append(matched, e)
		}
	}
	reg.sortEntries(matched)
	return matched
}

func (reg *Registry) sortEntries(entries []*entry) {
	rank := make(map[schema.Tier]int, len(reg.precedence))
	for i, t := range reg.precedence {
		rank[t] = i
	}
	sort.Slice(entries, func(i, j int) bool {
		ri, rj := rank[entries[i].variant.Tier()], rank[entries[j].variant.Tier()]
		if ri != rj {
			return ri < rj
		}
		return entries[i].order < entries[j].order
	})
}

// Select returns every rule applying to variant: rule sets of matching keys
// concatenated in precedence order, without deduplication.
func (reg *Registry) Select(variant schema.Variant) schema.RuleSet {
	return reg.SelectStage(variant, schema.StageUnknown)
}

// SelectStage is Select filtered to the rules firing at stage. StageUnknown
// keeps every rule. The result is a copy the caller may modify.
func (reg *Registry) SelectStage(variant schema.Variant, stage schema.Stage) schema.RuleSet {
	key := selectKey{variant: variant, stage: stage}
	if rules, hit := reg.cache.Get(key); hit {
		return append(make(schema.RuleSet, 0, len(rules)), rules...)
	}

	reg.mu.RLock()
	defer reg.mu.RUnlock()
	ret := make(schema.RuleSet, 0)
	for _, e := range reg.matching(variant) {
		for _, rule := range e.rules {
			if stage == schema.StageUnknown || rule.Stage == stage {
				ret = append(ret, rule)
			}
		}
	}
	reg.cache.Add(key, ret)
	return append(make(schema.RuleSet, 0, len(ret)), ret...)
}

// Variants lists the registered keys in precedence order.
func (reg *Registry) Variants() []schema.Variant {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	all := make([]*entry, 0, len(reg.entries))
	for _, e := range reg.entries {
		all = append(all, e)
	}
	reg.sortEntries(all)
	ret := make([]schema.Variant, 0, len(all))
	for _, e := range all {
		ret = append(ret, e.variant)
	}
	return ret
}

// Rules returns the rule set registered under exactly variant.
func (reg *Registry) Rules(variant schema.Variant) schema.RuleSet {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	if e, ok := reg.entries[variant]; ok {
		return append(schema.RuleSet(nil), e.rules...)
	}
	return nil
}
