package semantic

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Answer is the response to a natural-language question: the routed
// category (empty when all collections were searched), the supporting
// hits, and a one-line summary.
type Answer struct {
	Question string     `json:"question"`
	Category Collection `json:"category,omitempty"`
	Results  []Result   `json:"results,omitempty"`
	Sources  AllResults `json:"sources,omitempty"`
	Summary  string     `json:"summary"`
}

// intentWords routes a question to a collection by lexical cue. A question
// matching none of them searches every collection.
var intentWords = []struct {
	collection Collection
	words      []string
}{
	{People, []string{"who", "person", "people", "minister", "director"}},
	{Partners, []string{"company", "partner", "vendor", "contractor"}},
	{Entities, []string{"ministry", "agency", "department", "organization"}},
}

func routeQuestion(question string) Collection {
	lower := strings.ToLower(question)
	for _, intent := range intentWords {
		for _, w := range intent.words {
			if strings.Contains(lower, w) {
				return intent.collection
			}
		}
	}
	return ""
}

// AnswerQuestion routes the question to a collection by lexical intent,
// searches it, and summarizes the top hit. Questions with no recognizable
// intent search all collections.
func (ix *Index) AnswerQuestion(ctx context.Context, question string) (Answer, error) {
	a := Answer{Question: question}

	col := routeQuestion(question)
	if col == "" {
		sources, err := ix.SearchAll(ctx, question, 3)
		if err != nil {
			return a, err
		}
		a.Sources = sources
		a.Summary = summarizeAll(sources)
		return a, nil
	}

	results, err := ix.search(ctx, col, question, 5, Filters{})
	if err != nil {
		return a, err
	}
	a.Category = col
	a.Results = results
	a.Summary = summarizeCategory(results, col)
	return a, nil
}

func summarizeAll(all AllResults) string {
	var parts []string
	if len(all.Entities) > 0 {
		m := all.Entities[0].Metadata
		parts = append(parts, fmt.Sprintf("Found entity: %v (%v)", m["name"], m["entity_type"]))
	}
	if len(all.People) > 0 {
		m := all.People[0].Metadata
		parts = append(parts, fmt.Sprintf("Key person: %v - %v", m["name"], m["title"]))
	}
	if len(all.Partners) > 0 {
		m := all.Partners[0].Metadata
		parts = append(parts, fmt.Sprintf("Related partner: %v", m["company_name"]))
	}
	if len(parts) == 0 {
		return "No direct matches found."
	}
	return strings.Join(parts, ". ")
}

func summarizeCategory(results []Result, col Collection) string {
	if len(results) == 0 {
		return "No matches found."
	}
	top := results[0]
	m := top.Metadata
	switch col {
	case People:
		return fmt.Sprintf("Found: %v, %v (relevance %.0f%%)", m["name"], m["title"], top.Relevance*100)
	case Entities:
		return fmt.Sprintf("Found: %v, %v (relevance %.0f%%)", m["name"], m["entity_type"], top.Relevance*100)
	case Partners:
		return fmt.Sprintf("Found: %v, %v (relevance %.0f%%)", m["company_name"], m["relationship_type"], top.Relevance*100)
	}
	return "Found matches."
}

// HybridSearch combines semantic relevance with a token-overlap keyword
// score across all collections. keywordBoost in [0,1] weights the keyword
// component; the combined score orders the merged result list.
func (ix *Index) HybridSearch(ctx context.Context, query string, keywordBoost float64, n int) ([]Result, error) {
	if n <= 0 {
		n = 10
	}
	if keywordBoost < 0 {
		keywordBoost = 0
	}
	if keywordBoost > 1 {
		keywordBoost = 1
	}

	all, err := ix.SearchAll(ctx, query, n)
	if err != nil {
		return nil, err
	}

	queryTerms := termSet(query)
	merged := make([]Result, 0, len(all.Entities)+len(all.People)+len(all.Partners))
	for _, group := range [][]Result{all.Entities, all.People, all.Partners} {
		for _, r := range group {
			keyword := termOverlap(queryTerms, r.Document)
			r.Hybrid = (1-keywordBoost)*r.Relevance + keywordBoost*keyword
			merged = append(merged, r)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Hybrid != merged[j].Hybrid {
			return merged[i].Hybrid > merged[j].Hybrid
		}
		return merged[i].ID < merged[j].ID
	})
	if len(merged) > n {
		merged = merged[:n]
	}
	return merged, nil
}

func termSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(strings.ToLower(text)) {
		set[t] = true
	}
	return set
}

// termOverlap is the fraction of query terms present in the document.
func termOverlap(queryTerms map[string]bool, document string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	docTerms := termSet(document)
	matched := 0
	for t := range queryTerms {
		if docTerms[t] {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTerms))
}
