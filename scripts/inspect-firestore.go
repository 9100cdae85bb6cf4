//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

func main() {
	projectID := flag.String("project", "", "GCP project ID")
	collection := flag.String("collection", "daily_scripture", "Firestore collection name")
	from := flag.String("from", "", "First document id (YYYY-MM-DD, optional)")
	to := flag.String("to", "", "Last document id (YYYY-MM-DD, optional)")
	limit := flag.Int("limit", 10, "Max documents to return (0 for all)")
	countOnly := flag.Bool("count", false, "Only show counts per extraction strategy")
	flag.Parse()

	if *projectID == "" {
		log.Fatal("-project is required")
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer client.Close()

	coll := client.Collection(*collection)

	if *countOnly {
		showCounts(ctx, coll)
		return
	}

	query := coll.OrderBy(firestore.DocumentID, firestore.Asc)
	if *from != "" {
		query = query.StartAt(*from)
	}
	if *to != "" {
		query = query.EndAt(*to)
	}
	if *limit > 0 {
		query = query.Limit(*limit)
	}

	iter := query.Documents(ctx)
	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Fatalf("Error iterating documents: %v", err)
		}

		jsonData, _ := json.MarshalIndent(doc.Data(), "", "  ")
		fmt.Printf("--- Document: %s ---\n%s\n\n", doc.Ref.ID, string(jsonData))
		count++
	}

	fmt.Printf("Total documents shown: %d\n", count)
}

func showCounts(ctx context.Context, coll *firestore.CollectionRef) {
	counts := make(map[string]int)
	total := 0

	iter := coll.Documents(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Fatalf("Error iterating documents: %v", err)
		}

		strategy, _ := doc.Data()["extraction_strategy"].(string)
		if strategy == "" {
			strategy = "(none)"
		}
		counts[strategy]++
		total++
	}

	strategies := make([]string, 0, len(counts))
	for s := range counts {
		strategies = append(strategies, s)
	}
	sort.Strings(strategies)

	fmt.Println("Readings per extraction strategy:")
	fmt.Println("--------------------")
	for _, s := range strategies {
		fmt.Printf("%-30s %d\n", s, counts[s])
	}
	fmt.Println("--------------------")
	fmt.Printf("%-30s %d\n", "TOTAL", total)
}
