package crawler

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Sampling strategies.
const (
	SampleOne     = "one"
	SamplePerPage = "per-page"
	SampleAll     = "all"
	SampleFirst   = "first"
)

// Sampler picks the listing hrefs a run extracts. pages holds the item
// hrefs of each scanned result page in scan order.
type Sampler interface {
	Sample(pages [][]string) []string
	Name() string
}

// NewSampler returns the sampler for strategy. A zero seed seeds the
// random samplers from the clock.
func NewSampler(strategy string, seed int64) (Sampler, error) {
	switch strategy {
	case SampleOne, "":
		return &RandomOne{rng: newRand(seed)}, nil
	case SamplePerPage:
		return &PerPage{rng: newRand(seed)}, nil
	case SampleAll:
		return All{}, nil
	case SampleFirst:
		return First{}, nil
	default:
		return nil, fmt.Errorf("unknown sampling strategy: %s", strategy)
	}
}

func newRand(seed int64) *rand.Rand {
	s := uint64(seed)
	if seed == 0 {
		s = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(s, s>>1|1))
}

// RandomOne picks a single href uniformly from the union of all pages.
type RandomOne struct {
	rng *rand.Rand
}

func (r *RandomOne) Sample(pages [][]string) []string {
	all := union(pages)
	if len(all) == 0 {
		return nil
	}
	return []string{all[r.rng.IntN(len(all))]}
}

func (r *RandomOne) Name() string { return SampleOne }

// PerPage picks one random href from every non-empty page.
type PerPage struct {
	rng *rand.Rand
}

func (p *PerPage) Sample(pages [][]string) []string {
	set := NewLinkSet()
	for _, page := range pages {
		if len(page) == 0 {
			continue
		}
		set.Add(page[p.rng.IntN(len(page))])
	}
	return set.Links()
}

func (p *PerPage) Name() string { return SamplePerPage }

// All returns every href once.
type All struct{}

func (All) Sample(pages [][]string) []string { return union(pages) }

func (All) Name() string { return SampleAll }

// First returns the first href found.
type First struct{}

func (First) Sample(pages [][]string) []string {
	all := union(pages)
	if len(all) == 0 {
		return nil
	}
	return all[:1]
}

func (First) Name() string { return SampleFirst }

func union(pages [][]string) []string {
	set := NewLinkSet()
	for _, page := range pages {
		set.AddAll(page)
	}
	return set.Links()
}
