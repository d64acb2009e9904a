package product

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OptionsState tells whether buying options were looked up yet and what came back.
type OptionsState int

const (
	// OptionsPending means the lookup is in flight or has not started.
	OptionsPending OptionsState = iota
	// OptionsEmpty means the lookup finished with nothing to show, either because
	// no retailer was found or because the lookup failed.
	OptionsEmpty
	// OptionsFound means at least one option was found.
	OptionsFound
)

func (s OptionsState) String() string {
	switch s {
	case OptionsPending:
		return "pending"
	case OptionsEmpty:
		return "empty"
	case OptionsFound:
		return "found"
	default:
		return "unknown"
	}
}

// BuyingOptions is the three-state result of a buying options lookup.
// The zero value is pending.
//
// On the wire pending is null, empty is [] and found is a non-empty array.
type BuyingOptions struct {
	state OptionsState
	items []BuyingOption
}

func PendingOptions() BuyingOptions {
	return BuyingOptions{state: OptionsPending}
}

func NoOptions() BuyingOptions {
	return BuyingOptions{state: OptionsEmpty}
}

// OptionsFrom settles the lookup with items. An empty slice settles as empty.
func OptionsFrom(items []BuyingOption) BuyingOptions {
	if len(items) == 0 {
		return NoOptions()
	}
	return BuyingOptions{
		state: OptionsFound,
		items: append([]BuyingOption(nil), items...),
	}
}

func (o BuyingOptions) State() OptionsState { return o.state }

func (o BuyingOptions) Pending() bool { return o.state == OptionsPending }

// Items returns a copy of the found options. It is nil unless the state is found.
func (o BuyingOptions) Items() []BuyingOption {
	if o.state != OptionsFound {
		return nil
	}
	return append([]BuyingOption(nil), o.items...)
}

func (o BuyingOptions) Len() int { return len(o.items) }

func (o BuyingOptions) MarshalJSON() ([]byte, error) {
	switch o.state {
	case OptionsPending:
		return []byte("null"), nil
	case OptionsEmpty:
		return []byte("[]"), nil
	case OptionsFound:
		return json.Marshal(o.items)
	default:
		return nil, fmt.Errorf("invalid buying options state %d", o.state)
	}
}

func (o *BuyingOptions) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = PendingOptions()
		return nil
	}
	var items []BuyingOption
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to decode buying options: %w", err)
	}
	*o = OptionsFrom(items)
	return nil
}

// CollectBuyingOptions keeps candidates that carry both a URI and a title,
// drops repeated URIs (the first one wins) and stops after limit entries.
// The result is never nil.
func CollectBuyingOptions(candidates []BuyingOption, limit int) []BuyingOption {
	options := make([]BuyingOption, 0, min(len(candidates), max(limit, 0)))
	seen := make(map[string]bool)
	for _, c := range candidates {
		if len(options) >= limit {
			break
		}
		if c.URI == "" || c.Title == "" {
			continue
		}
		if seen[c.URI] {
			continue
		}
		seen[c.URI] = true
		options = append(options, c)
	}
	return options
}
