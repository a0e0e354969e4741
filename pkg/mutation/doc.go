// Package mutation turns submitted form intents into note store operations.
//
// A submission names its intent ("create" or "delete") through a discriminator
// field and carries the payload fields of that intent. The Handler validates
// required fields, invokes the note service and always resolves to a Result
// that can be rendered: either the affected note or an error with the id it
// refers to. Deletes go through a simulated slow and unreliable path (see
// package chaos). No retries are performed server-side.
package mutation
