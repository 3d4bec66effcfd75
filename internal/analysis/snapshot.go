package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// SnapshotSelectors locate listing fields inside a saved marketplace page.
// Each selector reads the element's content attribute when present, otherwise its text.
type SnapshotSelectors struct {
	Rating      string
	RatingScale float64
	Reviews     string
	Price       string
	Link        string
}

// DefaultSnapshotSelectors targets schema.org product microdata.
func DefaultSnapshotSelectors() SnapshotSelectors {
	return SnapshotSelectors{
		Rating:      `[itemprop="ratingValue"]`,
		RatingScale: 5,
		Reviews:     `[itemprop="reviewCount"]`,
		Price:       `[itemprop="price"]`,
		Link:        `link[rel="canonical"]`,
	}
}

var (
	numberPattern = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)
	errNoRating   = errors.New("rating not found in snapshot")
)

// SnapshotScorer extracts listings from HTML pages saved under Dir/<source>/<product>.html.
type SnapshotScorer struct {
	Dir       string
	Selectors map[string]SnapshotSelectors
}

// NewSnapshotScorer validates the snapshot directory.
func NewSnapshotScorer(dir string, selectors map[string]SnapshotSelectors) (*SnapshotScorer, error) {
	if dir == "" {
		return nil, eris.New("snapshot scorer requires a directory")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot dir %s", dir)
	}
	if !info.IsDir() {
		return nil, eris.Errorf("snapshot dir %s is not a directory", dir)
	}
	normalized := make(map[string]SnapshotSelectors, len(selectors))
	for name, sel := range selectors {
		normalized[strings.ToLower(name)] = sel
	}
	return &SnapshotScorer{Dir: dir, Selectors: normalized}, nil
}

// Score implements Scorer.
func (s *SnapshotScorer) Score(ctx context.Context, q ProductQuery, source string) (SourceResult, error) {
	if err := ctx.Err(); err != nil {
		return SourceResult{}, err
	}

	path, err := s.locate(q, source)
	if err != nil {
		return SourceResult{}, &SourceUnavailableError{Source: source, Err: err}
	}
	f, err := os.Open(path)
	if err != nil {
		return SourceResult{}, &SourceUnavailableError{Source: source, Err: eris.Wrapf(err, "open snapshot %s", path)}
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return SourceResult{}, &SourceUnavailableError{Source: source, Err: eris.Wrapf(err, "parse snapshot %s", path)}
	}

	res, err := extractListing(doc, s.selectorsFor(source))
	if err != nil {
		return SourceResult{}, &SourceUnavailableError{Source: source, Err: err}
	}
	res.SourceName = source
	return res, nil
}

// locate finds the page for q under Dir/<source>. The product wording derived from the query is
// tried as an exact file name first, then the longest saved product contained in the query wins.
func (s *SnapshotScorer) locate(q ProductQuery, source string) (string, error) {
	dir := filepath.Join(s.Dir, slug(source))
	name := derivedName(q)
	exact := filepath.Join(dir, slug(name)+".html")
	if _, err := os.Stat(exact); err == nil {
		return exact, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotListed
		}
		return "", eris.Wrapf(err, "list snapshots %s", dir)
	}
	keys := []string{matchKey(name), matchKey(q.Value)}
	var best string
	for _, entry := range entries {
		stem, ok := strings.CutSuffix(entry.Name(), ".html")
		if entry.IsDir() || !ok {
			continue
		}
		product := matchKey(stem)
		if product == "" || !containsAny(keys, product) {
			continue
		}
		if len(stem) > len(best) || (len(stem) == len(best) && stem < best) {
			best = stem
		}
	}
	if best == "" {
		return "", ErrNotListed
	}
	return filepath.Join(dir, best+".html"), nil
}

func containsAny(haystacks []string, needle string) bool {
	for _, h := range haystacks {
		if strings.Contains(h, needle) {
			return true
		}
	}
	return false
}

func (s *SnapshotScorer) selectorsFor(source string) SnapshotSelectors {
	sel, ok := s.Selectors[strings.ToLower(source)]
	def := DefaultSnapshotSelectors()
	if !ok {
		return def
	}
	if sel.Rating == "" {
		sel.Rating = def.Rating
	}
	if sel.RatingScale <= 0 {
		sel.RatingScale = def.RatingScale
	}
	if sel.Reviews == "" {
		sel.Reviews = def.Reviews
	}
	if sel.Price == "" {
		sel.Price = def.Price
	}
	if sel.Link == "" {
		sel.Link = def.Link
	}
	return sel
}

func extractListing(doc *goquery.Document, sel SnapshotSelectors) (SourceResult, error) {
	ratingText := fieldValue(doc, sel.Rating)
	rating, ok := firstNumber(ratingText)
	if !ok {
		return SourceResult{}, errNoRating
	}
	score := rating / sel.RatingScale * 100
	if score < 0 || score > 100 {
		return SourceResult{}, fmt.Errorf("rating %q exceeds scale %v", ratingText, sel.RatingScale)
	}

	var reviews int
	if n, ok := firstNumber(fieldValue(doc, sel.Reviews)); ok {
		reviews = int(n)
	}

	link := ""
	if node := doc.Find(sel.Link).First(); node.Length() > 0 {
		link, _ = node.Attr("href")
	}

	return SourceResult{
		Score:       roundTo(score, 1),
		ReviewCount: reviews,
		Price:       strings.TrimSpace(fieldValue(doc, sel.Price)),
		Link:        link,
	}, nil
}

func fieldValue(doc *goquery.Document, selector string) string {
	node := doc.Find(selector).First()
	if node.Length() == 0 {
		return ""
	}
	if content, ok := node.Attr("content"); ok && strings.TrimSpace(content) != "" {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(node.Text())
}

func firstNumber(text string) (float64, bool) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
