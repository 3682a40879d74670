package lens

// Lens selects the part of a round graph to show
type Lens struct {
	// Focus lists unit names or package names to center on. A package
	// name selects every unit in it.
	Focus []string `json:"focus"`
	// MaxDistance hides nodes further than this many edges from the focus.
	// Negative means unlimited.
	MaxDistance int `json:"maxDistance"`
	// Rules keeps only edges produced by these rules; empty keeps all
	Rules []string `json:"rules,omitempty"`
	// HideDeferred drops marked units still waiting for fresh facts
	HideDeferred bool `json:"hideDeferred,omitempty"`
}

// Unlimited is a MaxDistance that keeps every reachable node
const Unlimited = -1
