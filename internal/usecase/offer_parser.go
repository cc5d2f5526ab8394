package usecase

import (
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/flyerkit/backend/internal/domain"
)

// OfferParser turns pasted price lists into header lines and priced items.
// It holds no mutable state and is safe for concurrent use.
type OfferParser struct {
	enableDebugLogging bool
}

// headerMarkers flag banner/validity lines. Matching is a case-insensitive substring test;
// accents are significant, so "válida" and "validas" are distinct markers.
var headerMarkers = []string{"válida", "validas", "ofertas"}

var (
	// Matches a currency-tagged price anywhere in the line: "R$ 9,99", "$12.50", "r$3,00"
	currencyPricePattern = regexp.MustCompile(`(?i:r)?\$\s*(\d+[.,]\d{2})`)

	// Matches a bare price that ends the line: "24,90", "7.49"
	trailingPricePattern = regexp.MustCompile(`(\d+[.,]\d{2})$`)
)

// NewOfferParser creates a new offer parser
func NewOfferParser(enableDebugLogging bool) *OfferParser {
	return &OfferParser{
		enableDebugLogging: enableDebugLogging,
	}
}

// Parse splits rawText on newlines and classifies every non-blank line as header, item or
// nothing. It never fails: unrecognized lines are dropped.
func (p *OfferParser) Parse(rawText string) domain.ParseResult {
	result := domain.ParseResult{
		Header: []string{},
		Items:  []domain.ParsedItem{},
	}

	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isHeaderLine(line) {
			result.Header = append(result.Header, line)
			continue
		}

		item, ok := parseItemLine(line)
		if !ok {
			if p.enableDebugLogging {
				log.Printf("[PARSER] Dropped line without price: %q", line)
			}
			continue
		}
		result.Items = append(result.Items, item)
	}

	if p.enableDebugLogging {
		log.Printf("[PARSER] Parsed %d header lines and %d items", len(result.Header), len(result.Items))
	}

	return result
}

func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range headerMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// parseItemLine extracts the price and the remaining name from a trimmed line
func parseItemLine(line string) (domain.ParsedItem, bool) {
	token, spans := findPriceTokens(line)
	if token == "" {
		return domain.ParsedItem{}, false
	}

	price, err := strconv.ParseFloat(strings.Replace(token, ",", ".", 1), 64)
	if err != nil || math.IsInf(price, 0) || math.IsNaN(price) {
		return domain.ParsedItem{}, false
	}

	return domain.ParsedItem{
		RawLine:       line,
		SuggestedName: strings.TrimSpace(cutSpans(line, spans)),
		Price:         price,
	}, true
}

type span struct {
	start, end int
}

// findPriceTokens returns the numeric part of the preferred price token and the spans of every
// price token to strip from the name, in ascending order.
// Currency-tagged tokens win over the trailing bare token. A token whose two fraction digits are
// followed by another digit ("$9.999") is not a price.
func findPriceTokens(line string) (string, []span) {
	var token string
	var spans []span

	for _, m := range currencyPricePattern.FindAllStringSubmatchIndex(line, -1) {
		if m[1] < len(line) && isDigit(line[m[1]]) {
			continue
		}
		if token == "" {
			token = line[m[2]:m[3]]
		}
		spans = append(spans, span{start: m[0], end: m[1]})
	}

	if m := trailingPricePattern.FindStringSubmatchIndex(line); m != nil && !overlapsAny(spans, m[0], m[1]) {
		if token == "" {
			token = line[m[2]:m[3]]
		}
		spans = append(spans, span{start: m[0], end: m[1]})
	}

	return token, spans
}

func overlapsAny(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && s.start < end {
			return true
		}
	}
	return false
}

func cutSpans(line string, spans []span) string {
	var b strings.Builder
	last := 0
	for _, s := range spans {
		b.WriteString(line[last:s.start])
		last = s.end
	}
	b.WriteString(line[last:])
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
