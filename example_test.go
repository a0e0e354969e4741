package fancyforms_test

import (
	"context"
	"fmt"
	"log"
	"os"

	fancyforms "github.com/joelazar/fancy-forms"
)

// Example_basic demonstrates how to open a notes directory, create a note and list it back.
func Example_basic() {
	tmpDir, err := os.MkdirTemp("", "notes-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()

	// WithAutoInit(true) creates the directory. Versioning is off to keep the example git-free.
	svc, err := fancyforms.New(ctx, tmpDir, fancyforms.WithAutoInit(true), fancyforms.WithVersioning(false))
	if err != nil {
		log.Fatal(err)
	}
	defer svc.Close()

	if _, err := svc.CreateNote(ctx, "Groceries", "milk, eggs"); err != nil {
		log.Fatal(err)
	}

	notes, err := svc.ListNotes(ctx)
	if err != nil {
		log.Fatal(err)
	}
	for _, n := range notes {
		fmt.Printf("%s: %s\n", n.Title, n.Body)
	}
	// Output:
	// Groceries: milk, eggs
}

// Example_validation shows the inline messages returned for incomplete input.
func Example_validation() {
	ctx := context.Background()
	svc, err := fancyforms.New(ctx, "", fancyforms.WithAdapter(fancyforms.AdapterMemory))
	if err != nil {
		log.Fatal(err)
	}

	_, err = svc.CreateNote(ctx, "", "body")
	fmt.Println(err)
	_, err = svc.CreateNote(ctx, "title", "")
	fmt.Println(err)
	_, err = svc.DeleteNote(ctx, "")
	fmt.Println(err)
	// Output:
	// Title is required
	// Body is required
	// Missing id
}
