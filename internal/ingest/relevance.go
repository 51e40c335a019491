package ingest

import "strings"

// RelevanceVocabulary is the set of terms that marks text as AI/technology
// related. It is broad on purpose; the scorer ranks the results.
var RelevanceVocabulary = []string{
	"artificial intelligence", "machine learning", "deep learning", "neural network",
	"AI", "ML", "data science", "computer vision", "natural language processing", "NLP",
	"automation", "robotics", "algorithm", "analytics", "big data", "cloud", "digital",
	"innovation", "research", "technology", "transformation", "modernization", "cyber",
	"security", "IT", "software", "computing", "emerging tech", "emerging technology",
}

// Relevance matches text against a vocabulary with case-insensitive substring
// search. Short terms such as "ai" also hit inside longer words.
type Relevance struct {
	terms []string
}

func NewRelevance(vocab []string) *Relevance {
	r := &Relevance{}
	for _, term := range vocab {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			r.terms = append(r.terms, term)
		}
	}
	return r
}

var defaultRelevance = NewRelevance(RelevanceVocabulary)

// Match reports whether any of the texts contains a vocabulary term.
func (r *Relevance) Match(texts ...string) bool {
	for _, text := range texts {
		if text == "" {
			continue
		}
		lower := strings.ToLower(text)
		for _, term := range r.terms {
			if strings.Contains(lower, term) {
				return true
			}
		}
	}
	return false
}
