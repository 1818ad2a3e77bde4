// Package wiki navigates from a leader's Wikipedia page to the English article
// and extracts its first biographical paragraph.
package wiki

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bryanmaina/wikipedia-scraper/internal/constants"
	"github.com/bryanmaina/wikipedia-scraper/internal/domain"
	"github.com/bryanmaina/wikipedia-scraper/internal/textclean"
	"github.com/bryanmaina/wikipedia-scraper/internal/util"
	"github.com/bryanmaina/wikipedia-scraper/pkg/errors"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var (
	ErrNoEnglishArticle = stderrors.New("no English interlanguage link")
	ErrNoParagraph      = stderrors.New("no paragraph after the first table")
)

// BiographySource is what the harvester needs from the scraper.
type BiographySource interface {
	Biography(ctx context.Context, leader domain.Leader) (*domain.Biography, bool)
}

type Options struct {
	UserAgent string
	Timeout   time.Duration
	MinDelay  time.Duration
	MaxDelay  time.Duration
	// HTTPClient overrides the underlying transport. Optional.
	HTTPClient *http.Client
	// Throttle overrides the delay built from MinDelay/MaxDelay. Optional.
	Throttle Waiter
	// Normalize overrides textclean.Normalize. Optional.
	Normalize func(string) string
}

type Scraper struct {
	http      *resty.Client
	throttle  Waiter
	normalize func(string) string
	logger    *zap.Logger
}

func NewScraper(opts Options, logger *zap.Logger) *Scraper {
	if opts.Timeout <= 0 {
		opts.Timeout = constants.WikiConfig.RequestTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = constants.DefaultUserAgent
	}
	if opts.Throttle == nil {
		opts.Throttle = NewThrottle(opts.MinDelay, opts.MaxDelay)
	}
	if opts.Normalize == nil {
		opts.Normalize = textclean.Normalize
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetTimeout(opts.Timeout)
	rc.SetHeader("User-Agent", opts.UserAgent)

	s := &Scraper{
		http:      rc,
		throttle:  opts.Throttle,
		normalize: opts.Normalize,
		logger:    util.OrNop(logger),
	}
	rc.SetRedirectPolicy(resty.RedirectPolicyFunc(s.checkRedirect))
	return s
}

// checkRedirect keeps every redirect hop on Wikipedia and throttles it like
// any other request.
func (s *Scraper) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= constants.WikiConfig.MaxRedirects {
		return errors.NewValidationError("too many redirects", "redirect", req.URL.String())
	}
	if !IsWikipediaURL(req.URL) {
		return errors.NewValidationError("redirect leaves Wikipedia", "redirect", req.URL.String())
	}
	if err := s.throttle.Wait(req.Context()); err != nil {
		return err
	}
	s.logger.Debug("Following redirect", zap.String("to", req.URL.String()))
	return nil
}

// Biography never fails: every problem is logged and reported as absence.
func (s *Scraper) Biography(ctx context.Context, leader domain.Leader) (*domain.Biography, bool) {
	log := s.logger.With(
		zap.String("leader_id", leader.ID),
		zap.String("leader", leader.FullName()),
	)

	raw := strings.TrimSpace(leader.WikipediaURL)
	if raw == "" {
		log.Warn("Leader has no Wikipedia URL")
		return nil, false
	}

	content, err := s.Article(ctx, raw)
	if err != nil {
		fields := []zap.Field{zap.String("url", raw), zap.Error(err)}
		switch {
		case ctx.Err() != nil:
			log.Debug("Biography scrape cancelled", fields...)
		case errors.IsScrapeError(err):
			log.Error("Failed to scrape biography", fields...)
		default:
			log.Warn("No biography found", fields...)
		}
		return nil, false
	}

	log.Debug("Biography scraped", zap.String("preview", util.TruncateString(content, 80)))
	return &domain.Biography{LeaderID: leader.ID, Content: content}, true
}

// Article resolves rawURL to its English article and returns the normalized
// first paragraph after the first table.
func (s *Scraper) Article(ctx context.Context, rawURL string) (string, error) {
	start, err := ParseWikipediaURL(rawURL)
	if err != nil {
		return "", err
	}

	english, err := s.englishArticle(ctx, start)
	if err != nil {
		return "", err
	}

	doc, err := s.fetch(ctx, english.String())
	if err != nil {
		return "", err
	}

	text, ok := FirstParagraph(doc)
	if !ok {
		return "", fmt.Errorf("%s: %w", english, ErrNoParagraph)
	}

	return strings.TrimSpace(s.normalize(text)), nil
}

func (s *Scraper) englishArticle(ctx context.Context, start *url.URL) (*url.URL, error) {
	if IsEnglishHost(start.Hostname()) {
		return start, nil
	}

	doc, err := s.fetch(ctx, start.String())
	if err != nil {
		return nil, err
	}

	href, ok := doc.Find(constants.WikiConfig.InterlanguageEnglish).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return nil, fmt.Errorf("%s: %w", start, ErrNoEnglishArticle)
	}

	resolved, err := start.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, errors.NewValidationError("malformed interlanguage link", "href", href)
	}
	if !IsWikipediaURL(resolved) {
		return nil, errors.NewValidationError("interlanguage link leaves Wikipedia", "href", resolved.String())
	}

	s.logger.Debug("Following English interlanguage link",
		zap.String("from", start.String()),
		zap.String("to", resolved.String()),
	)
	return resolved, nil
}

func (s *Scraper) fetch(ctx context.Context, target string) (*goquery.Document, error) {
	if err := s.throttle.Wait(ctx); err != nil {
		return nil, errors.NewScrapeError("throttle wait interrupted", target, 0, err)
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(target)
	if err != nil {
		var verr *errors.ValidationError
		if stderrors.As(err, &verr) {
			return nil, verr
		}
		return nil, errors.NewScrapeError("HTTP request failed", target, 0, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		return nil, errors.NewScrapeError(fmt.Sprintf("unexpected status code: %d", resp.StatusCode()), target, resp.StatusCode(), nil)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(body, constants.WikiConfig.MaxBodyBytes))
	if err != nil {
		return nil, errors.NewScrapeError("HTML parse failed", target, resp.StatusCode(), err)
	}
	return doc, nil
}

// FirstParagraph returns the text of the first <p> that follows the first
// <table> in document order, skipping placeholder paragraphs.
func FirstParagraph(doc *goquery.Document) (string, bool) {
	var (
		seenTable bool
		text      string
		found     bool
	)

	doc.Find("table, p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if goquery.NodeName(sel) == "table" {
			seenTable = true
			return true
		}
		if !seenTable || sel.HasClass(constants.WikiConfig.EmptyParagraphClass) {
			return true
		}
		text = sel.Text()
		found = true
		return false
	})

	return text, found
}

// ParseWikipediaURL parses raw and rejects anything that is not an http(s)
// URL on a wikipedia.org host.
func ParseWikipediaURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !IsWikipediaURL(u) {
		return nil, errors.NewValidationError("URL must be a Wikipedia domain", "wikipedia_url", raw)
	}
	return u, nil
}

func IsWikipediaURL(u *url.URL) bool {
	if u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	return util.HostMatches(u.Hostname(), constants.WikiConfig.DomainSuffix)
}

func IsEnglishHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, en := range constants.WikiConfig.EnglishHosts {
		if host == en {
			return true
		}
	}
	return false
}
