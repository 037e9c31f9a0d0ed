// Package prompt assembles grounded generation prompts from retrieval results.
package prompt

import (
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain/search/result"
)

// ContextSeparator joins document texts in the grounding context.
const ContextSeparator = " "

const (
	instruction  = "Please Answer the query using the context provided."
	queryLabel   = " Query: "
	contextLabel = "\nContext: "
)

// Context joins result texts in the given order. No length cap is applied.
func Context(results []result.Result) string {
	texts := make([]string, len(results))
	for i := range results {
		texts[i] = results[i].Text()
	}
	return strings.Join(texts, ContextSeparator)
}

// Build renders the generation prompt for query grounded on results.
// The layout is a contract with the model and must stay byte-identical.
func Build(query string, results []result.Result) string {
	ctx := Context(results)

	var b strings.Builder
	b.Grow(len(instruction) + len(queryLabel) + len(query) + len(contextLabel) + len(ctx))
	b.WriteString(instruction)
	b.WriteString(queryLabel)
	b.WriteString(query)
	b.WriteString(contextLabel)
	b.WriteString(ctx)
	return b.String()
}
