// Package kbase embeds the kbase knowledge base in a Go program: documents
// with version history, AI summaries and tags, text and semantic search,
// and question answering over the whole corpus.
//
// The client runs the same use cases as the HTTP server, in process.
// Every mutation is performed on behalf of a User and obeys the same
// ownership rules: authors edit their own documents, admins edit any.
//
//	client, _ := kbase.New(ctx,
//	    kbase.WithRedis("localhost:6379", ""),
//	    kbase.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	defer client.Close()
//
//	alice := kbase.User{ID: "u-1", Name: "Alice"}
//	doc, _ := client.Documents(alice).Create(ctx, kbase.DocumentInput{
//	    Title:   "Deploying",
//	    Content: "Run make deploy from the release branch.",
//	})
//	_, _ = client.Assistant(alice).Summarize(ctx, doc.ID)
//	hits, _ := client.Search().Semantic(ctx, "how do I ship a release?")
//	answer, _ := client.Assistant(alice).Ask(ctx, "Who owns deploys?")
package kbase
