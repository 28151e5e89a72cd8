package entity

// InboundMessage message delivered by the transport to the pipeline
type InboundMessage struct {
	ChatID    int64
	SenderID  int64
	MessageID int
	Text      string
	IsCaption bool
}

// Outcome terminal state of a dispatched message
type Outcome string

const (
	OutcomeDelivered  Outcome = "delivered"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeRejected   Outcome = "rejected"
)

// Classification tags carried by Result.Reason
const (
	ReasonTranslated       = "translated"
	ReasonCacheHit         = "cache_hit"
	ReasonChatDisabled     = "chat_disabled"
	ReasonUserDisabled     = "user_disabled"
	ReasonNoText           = "no_text"
	ReasonSameLanguage     = "same_language"
	ReasonRateLimited      = "rate_limited"
	ReasonStorage          = "storage_unavailable"
	ReasonProviderTimeout  = "provider_timeout"
	ReasonProviderDown     = "provider_unavailable"
	ReasonProviderRejected = "provider_unsupported"
)

// Result pipeline output for one message.
// Text is the translation on delivery and the original text otherwise.
type Result struct {
	RequestID  string
	Outcome    Outcome
	Reason     string
	Text       string
	Notice     string
	SourceLang string
	TargetLang string
	CacheHit   bool
	Err        error
}

// CacheKey translation cache key. Text is compared byte-for-byte.
type CacheKey struct {
	Text string
	Lang string
}
