// Package featureflags evaluates runtime toggles configured through FEATURE_FLAGS.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Flags the service consults.
const (
	// LiveFeed gates the article websocket feed.
	LiveFeed = "live_feed"
)

// Set holds parsed flag rollouts keyed by normalized flag name.
// A rollout of 100 is fully on and 0 is off.
type Set struct {
	rollout map[string]int
	raw     map[string]string
}

// Parse reads a comma separated list such as "live_feed=on,beta_editor=25%".
// Accepted values are on/true/1, off/false/0 and an integer percentage.
func Parse(raw string) (*Set, error) {
	s := &Set{
		rollout: map[string]int{},
		raw:     map[string]string{},
	}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, value, ok := strings.Cut(entry, "=")
		name = normalize(name)
		value = strings.ToLower(strings.TrimSpace(value))
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("feature flag %q: expected name=value", entry)
		}

		percent, err := parseRollout(value)
		if err != nil {
			return nil, fmt.Errorf("feature flag %q: %w", name, err)
		}
		s.rollout[name] = percent
		s.raw[name] = value
	}
	return s, nil
}

func parseRollout(value string) (int, error) {
	switch value {
	case "on", "true", "1":
		return 100, nil
	case "off", "false", "0":
		return 0, nil
	}
	if !strings.HasSuffix(value, "%") {
		return 0, fmt.Errorf("unsupported value %q", value)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
	if err != nil || n < 0 || n > 100 {
		return 0, fmt.Errorf("percentage must be between 0%% and 100%% (got %q)", value)
	}
	return n, nil
}

// Enabled reports whether name is on for userID. Partial rollouts are
// stable per user and never include anonymous callers (userID 0).
// Unknown flags are off.
func (s *Set) Enabled(name string, userID uint) bool {
	if s == nil {
		return false
	}
	percent, ok := s.rollout[normalize(name)]
	if !ok {
		return false
	}
	switch {
	case percent >= 100:
		return true
	case percent <= 0, userID == 0:
		return false
	}
	return bucket(name, userID) < percent
}

// Names returns the configured flag names in sorted order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.rollout))
	for name := range s.rollout {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Raw returns the configured value of every flag.
func (s *Set) Raw() map[string]string {
	out := make(map[string]string, len(s.Names()))
	for _, name := range s.Names() {
		out[name] = s.raw[name]
	}
	return out
}

// Evaluate returns the state of every configured flag for userID.
func (s *Set) Evaluate(userID uint) map[string]bool {
	out := make(map[string]bool, len(s.Names()))
	for _, name := range s.Names() {
		out[name] = s.Enabled(name, userID)
	}
	return out
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
