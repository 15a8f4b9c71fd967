package pool

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve"

	"github.com/OpenTraceLab/OpenTracePool/pkg/footprint"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
)

// Index is a full-text index over package names, manufacturers and tags.
type Index struct {
	index bleve.Index
}

// indexDocument is what gets indexed for one package.
type indexDocument struct {
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Tags         []string `json:"tags"`
	Pads         []string `json:"pads"`
}

// Hit is one search result.
type Hit struct {
	ID    ident.ID
	Score float64
}

// OpenIndex opens the index at path, creating it if it does not exist.
func OpenIndex(path string) (*Index, error) {
	var (
		idx bleve.Index
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		idx, err = bleve.Open(path)
	} else {
		idx, err = bleve.New(path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("pool: index %s: %w", path, err)
	}
	return &Index{index: idx}, nil
}

// NewMemIndex returns an index that lives only in memory.
func NewMemIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("pool: index: %w", err)
	}
	return &Index{index: idx}, nil
}

// Close releases the index.
func (x *Index) Close() error {
	return x.index.Close()
}

// Add indexes p, replacing any previous entry for its id.
func (x *Index) Add(p *footprint.Package) error {
	doc := indexDocument{
		Name:         p.Name,
		Manufacturer: p.Manufacturer,
		Tags:         p.Tags,
	}
	for _, id := range ident.SortedKeys(p.Pads) {
		doc.Pads = append(doc.Pads, p.Pads[id].Name)
	}
	if err := x.index.Index(p.UUID.String(), doc); err != nil {
		return fmt.Errorf("pool: index %s: %w", p.UUID, err)
	}
	return nil
}

// Remove drops the entry for id.
func (x *Index) Remove(id ident.ID) error {
	return x.index.Delete(id.String())
}

// Build indexes every package of src.
func (x *Index) Build(src Lister) (int, error) {
	n := 0
	for _, id := range src.PackageIDs() {
		p, err := src.GetPackage(id)
		if err != nil {
			return n, err
		}
		if err := x.Add(p); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Search runs a query string query ("sot", "tags:smd", "+name:dip -tags:tht")
// and returns at most limit hits, best first.
func (x *Index) Search(query string, limit int) ([]Hit, error) {
	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(query), limit, 0, false)
	res, err := x.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("pool: search %q: %w", query, err)
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := ident.Parse(h.ID)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{ID: id, Score: h.Score})
	}
	return hits, nil
}

// Count returns the number of indexed packages.
func (x *Index) Count() (uint64, error) {
	return x.index.DocCount()
}
