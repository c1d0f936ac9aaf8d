// Package featureflags evaluates rollout flags from a comma-separated
// config string, e.g. "new_composer=on,threaded_replies=25%,legacy_feed=off".
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

type ruleKind int

const (
	ruleOff ruleKind = iota
	ruleOn
	rulePercent
)

type rule struct {
	kind    ruleKind
	percent int
	raw     string
}

// Manager holds parsed flag rules. The zero value and a nil Manager both
// report every flag as disabled.
type Manager struct {
	rules map[string]rule
}

// NewManager parses a comma-separated flag list. Malformed entries are
// skipped rather than rejected so a single typo cannot take the config down.
func NewManager(raw string) *Manager {
	rules := make(map[string]rule)
	for _, entry := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		name = canon(name)
		value = canon(value)
		if name == "" || value == "" {
			continue
		}
		rules[name] = parseRule(value)
	}
	return &Manager{rules: rules}
}

func parseRule(value string) rule {
	switch value {
	case "on", "true", "1":
		return rule{kind: ruleOn, raw: value}
	case "off", "false", "0":
		return rule{kind: ruleOff, raw: value}
	}
	if pct, ok := strings.CutSuffix(value, "%"); ok {
		n, err := strconv.Atoi(pct)
		if err == nil && n > 0 {
			if n > 100 {
				n = 100
			}
			return rule{kind: rulePercent, percent: n, raw: value}
		}
	}
	// Unknown values evaluate as off but stay visible in Raw.
	return rule{kind: ruleOff, raw: value}
}

// Enabled reports whether the named flag is on for the given user. Percentage
// rollouts hash the flag name together with the user ID, so a user's bucket
// is stable across requests and independent per flag. Unknown flags and
// anonymous users in a partial rollout evaluate to false.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[canon(name)]
	if !ok {
		return false
	}
	switch r.kind {
	case ruleOn:
		return true
	case rulePercent:
		if r.percent >= 100 {
			return true
		}
		if userID == 0 {
			return false
		}
		return bucket(canon(name), userID) < r.percent
	default:
		return false
	}
}

// Raw returns the configured value of every flag, as parsed from the config
// string.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.rules))
	for name, r := range m.rules {
		out[name] = r.raw
	}
	return out
}

// Snapshot evaluates every flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func canon(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
