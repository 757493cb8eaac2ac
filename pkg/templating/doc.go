/*
Package templating resolves the templating directives of an HCP content tree.

A tree may contain If nodes, which select a branch by feature flag, and Ctx
nodes, which are replaced by a value from a Context. Resolve returns a new
tree with every If and Ctx eliminated; the input is never modified. Include
nodes are passed through or rejected depending on the IncludePolicy.

Resolution is bounded by a maximum depth, so a context value that refers back
to itself ends in a *CycleError instead of recursing forever. A missing
context key never fails: it resolves to the text BAD CONTEXT.

The engine is pure and synchronous. TemplateManager builds on it to render
documents kept in a docstore.Store, resolving the top-level nodes of a
document concurrently and returning an envelope.Response.
*/
package templating
