package usecase

import (
	"log"
	"regexp"
	"strings"

	"github.com/flyerkit/backend/internal/domain"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultMaxMatchDistance bounds how different a suggested product name may be
const DefaultMaxMatchDistance = 3

var (
	// Punctuation that does not distinguish products: "Coca-Cola, 2L." vs "coca-cola 2l"
	nameNoisePattern = regexp.MustCompile(`[,;:!?*"'()]+|\.+$`)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// ProductMatcher suggests an existing catalog product for a parsed item name
type ProductMatcher struct {
	maxDistance        int
	enableDebugLogging bool
}

// NewProductMatcher creates a matcher accepting suggestions up to maxDistance edits away
func NewProductMatcher(maxDistance int, enableDebugLogging bool) *ProductMatcher {
	if maxDistance < 0 {
		maxDistance = DefaultMaxMatchDistance
	}
	return &ProductMatcher{
		maxDistance:        maxDistance,
		enableDebugLogging: enableDebugLogging,
	}
}

// Suggest returns the closest product for name, or nil when nothing is close enough.
// Names are compared case- and accent-insensitively; one name must be a subsequence of the
// other, and ties go to the earlier product.
func (m *ProductMatcher) Suggest(name string, products []domain.Product) *domain.ProductMatch {
	normalized := normalizeProductName(name)
	if normalized == "" {
		return nil
	}

	var best *domain.ProductMatch
	for _, product := range products {
		candidate := normalizeProductName(product.Name)
		if candidate == "" {
			continue
		}

		distance := matchDistance(normalized, candidate)
		if distance < 0 || distance > m.maxDistance {
			continue
		}
		if best == nil || distance < best.Distance {
			best = &domain.ProductMatch{ProductID: product.ID, Name: product.Name, Distance: distance}
		}
		if distance == 0 {
			break
		}
	}

	if m.enableDebugLogging {
		if best != nil {
			log.Printf("[MATCH] %q -> %q (distance %d)", name, best.Name, best.Distance)
		} else {
			log.Printf("[MATCH] %q -> no suggestion", name)
		}
	}

	return best
}

// matchDistance ranks the pair in both directions; -1 means neither contains the other
func matchDistance(a, b string) int {
	forward := fuzzy.RankMatchNormalizedFold(a, b)
	backward := fuzzy.RankMatchNormalizedFold(b, a)
	switch {
	case forward < 0:
		return backward
	case backward < 0:
		return forward
	case forward < backward:
		return forward
	default:
		return backward
	}
}

// normalizeProductName lowercases, strips noise punctuation and collapses whitespace
func normalizeProductName(s string) string {
	result := strings.ToLower(s)
	result = nameNoisePattern.ReplaceAllString(result, " ")
	result = multiSpacePattern.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}
