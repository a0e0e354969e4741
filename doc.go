// Package fancyforms is the composition root of the notes app.
//
// It connects the note service (pkg/core) with a storage adapter chosen by
// name: Markdown files optionally versioned with git ("fs", the default),
// SQLite ("sqlite"), Redis ("redis") or process memory ("memory").
//
// Usage:
//
//	svc, err := fancyforms.New(ctx, "./notes",
//		fancyforms.WithAutoInit(true),
//		fancyforms.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//	defer svc.Close()
//
//	n, err := svc.CreateNote(ctx, "Groceries", "milk, eggs")
//
// The web page, its form protocol and the simulated flaky deletes live in
// internal/web and pkg/mutation; cmd/notes wires them together.
package fancyforms
