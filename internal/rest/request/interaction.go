package request

// Seed carries a state the client already holds, e.g. rendered into
// the page payload, to prime the cache on first observation.
type Seed struct {
	Active bool  `json:"active"`
	Count  int64 `json:"count" binding:"gte=0"`
}
