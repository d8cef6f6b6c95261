package usecase

import (
	"math"
	"sort"
	"strings"

	"github.com/ofertas-ar/backend/internal/domain"
)

// Equivalence thresholds for the duplicate predicate
const (
	nameSimilarityThreshold = 70.0 // minimum Jaccard overlap (%) between name token sets
	priceTolerancePct       = 1.0  // maximum relative price gap (%)
)

// degenerateNamePattern marks listings whose names carry an upstream text
// duplication artifact ("Placa de Placa de Video ...").
const degenerateNamePattern = "placa de placa"

// degenerateNameScore is the fixed score assigned to such names.
//
// TODO: confirm the intended polarity with the product owner. Lower scores win
// the representative slot, so this "penalty" actually ranks degenerate names
// first. Kept as-is until clarified.
const degenerateNameScore = 1

// qualityScore ranks which near-duplicate's display data survives. Lower is
// treated as better: shorter names are preferred as representatives.
func qualityScore(p domain.Product) int {
	if strings.Contains(strings.ToLower(p.Nombre), degenerateNamePattern) {
		return degenerateNameScore
	}
	return len(p.Nombre)
}

// tokenSet splits a normalized name into its unique word tokens.
func tokenSet(name string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(NormalizeText(name)) {
		set[w] = true
	}
	return set
}

// nameSimilarity computes the Jaccard overlap of two token sets as a
// percentage. Zero when either name has no tokens.
func nameSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := 0
	for t := range a {
		if b[t] {
			common++
		}
	}
	union := len(a) + len(b) - common
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union) * 100
}

// areDuplicates reports whether two listings describe the same real-world
// product: similar names, same store (or both unknown), near-identical price.
func areDuplicates(a, b domain.Product) bool {
	storeA := NormalizeStore(a.Tienda)
	storeB := NormalizeStore(b.Tienda)
	storesMatch := storeA == storeB || (storeA == "" && storeB == "")

	maxPrice := math.Max(a.Precio, b.Precio)
	var priceGapPct float64
	if maxPrice > 0 {
		priceGapPct = math.Abs(a.Precio-b.Precio) / maxPrice * 100
	} else {
		priceGapPct = priceTolerancePct // both zero: not close
	}

	similarity := nameSimilarity(tokenSet(a.Nombre), tokenSet(b.Nombre))

	return similarity >= nameSimilarityThreshold &&
		storesMatch &&
		priceGapPct < priceTolerancePct
}

// Deduplicate collapses a list of listings to one representative per
// equivalence cluster.
//
// This is a single-pass greedy pass: each record is compared against the
// representatives seen so far, not against every member of a cluster, so it
// approximates (but does not guarantee) transitive equivalence classes. That
// trade is accepted for the result-set sizes involved (tens of records).
// Output preserves the order representatives were finalized, not input order.
func Deduplicate(products []domain.Product) []domain.Product {
	if len(products) == 0 {
		return products
	}

	sorted := make([]domain.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		return qualityScore(sorted[i]) < qualityScore(sorted[j])
	})

	var representatives []domain.Product
	for _, candidate := range sorted {
		matched := false
		for i, rep := range representatives {
			if !areDuplicates(candidate, rep) {
				continue
			}
			matched = true
			// A strictly better candidate takes over the cluster; the
			// representative is re-finalized at the end of the output.
			if qualityScore(candidate) < qualityScore(rep) {
				representatives = append(representatives[:i], representatives[i+1:]...)
				representatives = append(representatives, candidate)
			}
			break
		}
		if !matched {
			representatives = append(representatives, candidate)
		}
	}

	return representatives
}

// SortByPrice orders products by ascending price, pushing listings without a
// usable price to the end.
func SortByPrice(products []domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		pi, pj := products[i].Precio, products[j].Precio
		if pi <= 0 {
			return false
		}
		if pj <= 0 {
			return true
		}
		return pi < pj
	})
}
