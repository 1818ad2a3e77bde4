package constants

import "time"

var APIConfig = struct {
	DefaultBaseURL   string
	CookiePath       string
	CountriesPath    string
	LeadersPath      string
	DefaultTimeout   time.Duration
	DefaultMaxRetry  int
	HandshakeAttempt int
}{
	DefaultBaseURL:   "https://country-leaders.onrender.com",
	CookiePath:       "/cookie/",
	CountriesPath:    "/countries",
	LeadersPath:      "/leaders",
	DefaultTimeout:   30 * time.Second,
	DefaultMaxRetry:  3,
	HandshakeAttempt: 2, // one try plus one more on 403
}

var WikiConfig = struct {
	EnglishHosts         []string
	DomainSuffix         string
	InterlanguageEnglish string
	EmptyParagraphClass  string
	DefaultMinDelay      time.Duration
	DefaultMaxDelay      time.Duration
	RequestTimeout       time.Duration
	MaxBodyBytes         int64
	MaxRedirects         int
}{
	EnglishHosts:         []string{"en.wikipedia.org", "en.m.wikipedia.org"},
	DomainSuffix:         "wikipedia.org",
	InterlanguageEnglish: "li.interwiki-en.interlanguage-link a",
	EmptyParagraphClass:  "mw-empty-elt",
	DefaultMinDelay:      1 * time.Second,
	DefaultMaxDelay:      3 * time.Second,
	RequestTimeout:       20 * time.Second,
	MaxBodyBytes:         8 << 20,
	MaxRedirects:         10,
}

var CacheConfig = struct {
	RosterFileSuffix    string
	BiographyFileSuffix string
	RedisRosterPrefix   string
	RedisBioPrefix      string
	RedisBioIndex       string
	RedisReadyTimeout   time.Duration
}{
	RosterFileSuffix:    "_leaders.json",
	BiographyFileSuffix: "_bio.json",
	RedisRosterPrefix:   "leaders:roster:",
	RedisBioPrefix:      "leaders:bio:",
	RedisBioIndex:       "leaders:bios",
	RedisReadyTimeout:   5 * time.Second,
}

const DefaultUserAgent = "LeadersBioHarvester/1.0 (+https://github.com/bryanmaina/wikipedia-scraper)"
