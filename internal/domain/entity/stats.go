package entity

// CacheStats translation cache counters snapshot
type CacheStats struct {
	Entries   int    `json:"entries"`
	Capacity  int    `json:"capacity"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// RateLimitStats limiter counters snapshot
type RateLimitStats struct {
	Senders   int    `json:"senders"`
	Admitted  uint64 `json:"admitted"`
	Rejected  uint64 `json:"rejected"`
	Evictions uint64 `json:"evictions"`
	Swept     uint64 `json:"swept"`
}

// RuntimeStats what /stats reports
type RuntimeStats struct {
	Engine    string         `json:"engine"`
	Chats     int            `json:"chats"`
	Cache     CacheStats     `json:"cache"`
	RateLimit RateLimitStats `json:"rate_limit"`
}
