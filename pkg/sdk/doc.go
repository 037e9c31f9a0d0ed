// Package ragdex provides an embeddable Go client for ragdex: keyword
// retrieval over a Redis full-text index plus answer generation with an
// OpenAI-compatible chat model.
//
// Documents are plain text. A document's id is the hex SHA-256 of its text,
// so indexing the same text twice yields the same id and a single stored copy.
//
//	client, _ := ragdex.New(ctx,
//	    ragdex.WithRedis("localhost:6379", ""),
//	    ragdex.WithIndex("notes"),
//	    ragdex.WithOpenAI(ragdex.OpenAIConfig{APIKey: os.Getenv("OPENAI_API_KEY")}),
//	)
//	defer client.Close()
//
//	id, _ := client.Documents().Index(ctx, "Redis ships a query engine since 8.0")
//	hits, _ := client.Search(ctx, "query engine", 3)
//	answer, _ := client.Answer(ctx, "Which Redis version ships a query engine?")
package ragdex
