package stores_test

import (
	"context"
	"fmt"
	"log"

	"github.com/thomascherickal/strawberryfields/pkg/stores"
)

// ExampleNewSQLiteStore demonstrates creating and initializing the ledger.
func ExampleNewSQLiteStore() {
	// Create store configuration
	store, err := stores.NewSQLiteStore(stores.Config{
		Path: ":memory:", // Use in-memory database for example
	})
	if err != nil {
		log.Fatal(err)
	}

	// Initialize the database connection
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		log.Fatal(err)
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		log.Fatal(err)
	}

	defer store.Close()

	// Ledger is now ready to use
	fmt.Println("Ledger initialized successfully")
	// Output: Ledger initialized successfully
}

// ExampleSQLiteStore_CreateSubmission demonstrates recording a submission.
func ExampleSQLiteStore_CreateSubmission() {
	store, _ := stores.NewSQLiteStore(stores.Config{Path: ":memory:"})
	ctx := context.Background()
	_ = store.Init(ctx)
	_ = store.Migrate(ctx)
	defer store.Close()

	// Record what we just submitted
	sub := stores.NewSubmission(29583, "platform.example.com",
		"/circuits/fock.xbb", "name prog\nSgate(0.54) | 0", "queued")

	if err := store.CreateSubmission(ctx, sub); err != nil {
		log.Fatal(err)
	}

	// Look it up by the server-assigned job id
	retrieved, err := store.GetSubmissionByJobID(ctx, 29583)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Job %d submitted to %s, status: %s\n",
		retrieved.JobID, retrieved.Hostname, retrieved.LastStatus)
	// Output: Job 29583 submitted to platform.example.com, status: queued
}

// ExampleSQLiteStore_RecordStatus demonstrates tracking status transitions.
func ExampleSQLiteStore_RecordStatus() {
	store, _ := stores.NewSQLiteStore(stores.Config{Path: ":memory:"})
	ctx := context.Background()
	_ = store.Init(ctx)
	_ = store.Migrate(ctx)
	defer store.Close()

	sub := stores.NewSubmission(29583, "platform.example.com", "", "", "queued")
	_ = store.CreateSubmission(ctx, sub)

	// Polling observations only append events when the status changes
	for _, observed := range []string{"queued", "running", "complete"} {
		changed, err := store.RecordStatus(ctx, sub.ID, observed)
		if err != nil {
			log.Fatal(err)
		}
		if changed {
			fmt.Printf("transition to %s\n", observed)
		}
	}

	events, err := store.ListJobEvents(ctx, &sub.ID, 10, 0)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("recorded %d events\n", len(events))
	// Output:
	// transition to running
	// transition to complete
	// recorded 3 events
}
