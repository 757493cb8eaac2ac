/*
Package content defines the HCP/HCF document tree: a recursive set of typed
content nodes (text, layouts, tables, live sections, blobs, menus, references,
forms, fields) plus the templating directives If, Include and Ctx that a
server eliminates before a client ever renders the tree.

The node set is open. Content is an interface, and any variant this package
does not recognize, whether decoded from the wire as Unknown or implemented
by another package, is carried through traversals untouched.

Nesting rules such as "a Table holds only HLayout rows" are advisory. Nothing
here rejects a tree for breaking them; Lint reports them as issues instead.

The canonical value form is an externally tagged map, for example
{"Live": ["https://example.org/feed", 5]}. ToValue and FromValue convert to
and from that form, and the JSON and YAML codecs are built on top of it.
*/
package content
