package analysis

import (
	"net/url"
	"path"
	"strings"
)

// DefaultCatalog lists the products recognised by name when no catalog is configured.
func DefaultCatalog() []string {
	return []string{"iPhone 15", "Samsung Galaxy S24", "Wireless Earbuds", "Laptop", "Dress"}
}

// Normalizer validates caller input and resolves display names against a product catalog.
type Normalizer struct {
	Catalog []string
}

// Normalize turns a raw query into a ProductQuery or fails with *InvalidInputError.
func (n Normalizer) Normalize(raw RawQuery) (ProductQuery, error) {
	ref := strings.TrimSpace(raw.ImageRef)
	if raw.Kind == KindImage || ref != "" {
		if ref == "" {
			return ProductQuery{}, &InvalidInputError{Reason: "image query requires an image reference"}
		}
		name := strings.TrimSpace(raw.ImageName)
		if name == "" {
			name = strings.TrimSpace(raw.Value)
		}
		if name == "" {
			return ProductQuery{}, &InvalidInputError{Reason: "image reference has no name fallback"}
		}
		return ProductQuery{Kind: KindImage, Value: name, Ref: ref}, nil
	}

	value := strings.TrimSpace(raw.Value)
	if value == "" {
		return ProductQuery{}, &InvalidInputError{Reason: "query value is empty"}
	}

	switch raw.Kind {
	case KindURL:
		if !isWebURL(value) {
			return ProductQuery{}, &InvalidInputError{Reason: "url query must be an absolute http(s) url"}
		}
		return ProductQuery{Kind: KindURL, Value: value}, nil
	case KindName:
		return ProductQuery{Kind: KindName, Value: value}, nil
	case "":
		if isWebURL(value) {
			return ProductQuery{Kind: KindURL, Value: value}, nil
		}
		return ProductQuery{Kind: KindName, Value: value}, nil
	default:
		return ProductQuery{}, &InvalidInputError{Reason: "unknown query kind " + string(raw.Kind)}
	}
}

// ProductName resolves the display name for a query. Catalog entries win over derived names.
func (n Normalizer) ProductName(q ProductQuery) string {
	candidate := derivedName(q)

	catalog := n.Catalog
	if len(catalog) == 0 {
		catalog = DefaultCatalog()
	}
	if product, ok := matchCatalog(catalog, candidate); ok {
		return product
	}
	// Ids in the path ("/dp/B0CHX1W1XY") leave no usable slug; the full URL may still name the product.
	if q.Kind == KindURL {
		if product, ok := matchCatalog(catalog, humanizeSlug(q.Value)); ok {
			return product
		}
	}
	return candidate
}

// derivedName is the product wording carried by the query itself: the URL slug, the file name
// or the free text.
func derivedName(q ProductQuery) string {
	switch q.Kind {
	case KindURL:
		return nameFromURL(q.Value)
	case KindImage:
		return nameFromFile(q.Value)
	default:
		return q.Value
	}
}

func matchCatalog(catalog []string, text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, product := range catalog {
		p := strings.ToLower(strings.TrimSpace(product))
		if p != "" && strings.Contains(lowered, p) {
			return product, true
		}
	}
	return "", false
}

func isWebURL(value string) bool {
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func nameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	// Marketplace paths mix a descriptive slug with short ids ("/p/itm123"); keep the wordiest segment.
	best, bestWords := "", 0
	for _, seg := range strings.Split(strings.Trim(u.Path, "/"), "/") {
		if unescaped, err := url.PathUnescape(seg); err == nil {
			seg = unescaped
		}
		name := humanizeSlug(strings.TrimSuffix(seg, path.Ext(seg)))
		words := len(strings.Fields(name))
		if words == 1 && isPathToken(name) {
			continue
		}
		if words > bestWords {
			best, bestWords = name, words
		}
	}
	if best != "" {
		return best
	}
	if u.Host != "" {
		return u.Host
	}
	return raw
}

// isPathToken reports whether a single-word segment is a route or an id rather than a product word.
func isPathToken(word string) bool {
	if len(word) < 3 {
		return true
	}
	return strings.ContainsAny(word, "0123456789")
}

func nameFromFile(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if cleaned := humanizeSlug(strings.TrimSuffix(base, path.Ext(base))); cleaned != "" {
		return cleaned
	}
	return name
}

func humanizeSlug(s string) string {
	replacer := strings.NewReplacer("-", " ", "_", " ", "+", " ", ".", " ")
	return strings.Join(strings.Fields(replacer.Replace(s)), " ")
}
