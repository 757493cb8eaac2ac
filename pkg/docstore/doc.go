/*
Package docstore keeps HCF documents and template contexts in a SQLite
database so a server can render stored documents per request.

Documents are stored by name as JSON HCF bodies. Contexts are named sets of
key -> content entries used to resolve Ctx nodes. The package works with any
database/sql SQLite driver; the caller opens the database and calls
SetupSchema once.
*/
package docstore
