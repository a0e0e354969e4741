// Package view reconciles the displayed list of notes with in-flight mutations.
//
// The displayed state is an immutable Snapshot. Reduce computes the next
// snapshot from the previous one and a mutation event, so the optimistic rules
// can be tested without any transport:
//
//   - a note disappears as soon as its delete is submitted (after the user
//     confirmed it), before the server answers;
//   - it reappears, labelled "Retry PLS", if the server reports a failure;
//   - a successful delete keeps it hidden until the next full load confirms;
//   - while a create is in flight the create control reads "Creating" and is
//     disabled; when it settles the form is reset and focus returns to the title.
//
// Controller drives a Remote with these rules and tracks every delete
// independently by note id.
package view
