package content

// Kind is the wire tag of a content variant.
type Kind string

const (
	KindText         Kind = "Text"
	KindHLayout      Kind = "HLayout"
	KindVLayout      Kind = "VLayout"
	KindInlineLayout Kind = "InlineLayout"
	KindTable        Kind = "Table"
	KindLive         Kind = "Live"
	KindBlob         Kind = "Blob"
	KindMenu         Kind = "Menu"
	KindRef          Kind = "Ref"
	KindIf           Kind = "If"
	KindInclude      Kind = "Include"
	KindCtx          Kind = "Ctx"
	KindForm         Kind = "Form"
	KindField        Kind = "Field"
)

// IsDirective reports whether the kind is a templating directive that must
// be resolved before the tree reaches a renderer.
func (k Kind) IsDirective() bool {
	return k == KindIf || k == KindInclude || k == KindCtx
}

// IsLayout reports whether the kind is one of the layout variants.
func (k Kind) IsLayout() bool {
	return k == KindHLayout || k == KindVLayout || k == KindInlineLayout
}

// Content is a single node in an HCF or HCP response tree.
type Content interface {
	Kind() Kind
}

// Container is implemented by every variant that owns an ordered sequence of
// children. WithElements returns a copy of the receiver holding the given
// children; any other payload (such as a Form's PostURL) is kept.
type Container interface {
	Content
	Elements() []Content
	WithElements(children []Content) Content
}

// Text is a block of text.
type Text struct {
	Text string
}

// HLayout is a horizontal layout. It shouldn't have HLayout children.
type HLayout struct {
	Children []Content
}

// VLayout is a vertical layout. It shouldn't have VLayout children. The root
// sequence of a File or Response is an implicit VLayout.
type VLayout struct {
	Children []Content
}

// InlineLayout shouldn't have any layout children.
type InlineLayout struct {
	Children []Content
}

// Table is a table layout whose children should all be HLayout rows.
type Table struct {
	Children []Content
}

// Live is a section that clients refetch from URL every Interval seconds.
// Clients may clamp unreasonable intervals.
type Live struct {
	URL      string
	Interval float64
}

// Blob references non-text content, shown as a download link or an embed
// depending on client settings.
type Blob struct {
	URL         string
	MimeType    string
	Description string
}

// Menu is a list of choices. Children should be Text, Blob or Ref.
type Menu struct {
	Children []Content
}

// Ref references text content, preferably HCF or an HCP response.
type Ref struct {
	URL         string
	Description string
}

// If selects Then when Flag is an active feature and Else otherwise.
type If struct {
	Flag string
	Then Content
	Else Content
}

// Include pulls in content from URL at templating time.
type Include struct {
	URL string
}

// Ctx is replaced by the context value stored under Key.
type Ctx struct {
	Key string
}

// Form groups fields that are submitted by POST to PostURL in the format of
// an HTML form. See InsecureForm.
type Form struct {
	Children []Content
	PostURL  string
}

// Field is an input inside a Form.
type Field struct {
	Name  string
	Label string
	Type  string
}

// Unknown holds a variant this package does not recognize, keyed by its wire
// tag, so that it survives a decode/encode round trip. Bare marks a variant
// written as the tag string alone, with no payload.
type Unknown struct {
	Tag     string
	Payload any
	Bare    bool
}

func (Text) Kind() Kind { return KindText }
func (HLayout) Kind() Kind { return KindHLayout }
func (VLayout) Kind() Kind { return KindVLayout }
func (InlineLayout) Kind() Kind { return KindInlineLayout }
func (Table) Kind() Kind { return KindTable }
func (Live) Kind() Kind { return KindLive }
func (Blob) Kind() Kind { return KindBlob }
func (Menu) Kind() Kind { return KindMenu }
func (Ref) Kind() Kind { return KindRef }
func (If) Kind() Kind { return KindIf }
func (Include) Kind() Kind { return KindInclude }
func (Ctx) Kind() Kind { return KindCtx }
func (Form) Kind() Kind { return KindForm }
func (Field) Kind() Kind { return KindField }
func (u Unknown) Kind() Kind { return Kind(u.Tag) }

func (c HLayout) Elements() []Content { return c.Children }
func (c VLayout) Elements() []Content { return c.Children }
func (c InlineLayout) Elements() []Content { return c.Children }
func (c Table) Elements() []Content { return c.Children }
func (c Menu) Elements() []Content { return c.Children }
func (c Form) Elements() []Content { return c.Children }

func (HLayout) WithElements(children []Content) Content { return HLayout{Children: children} }
func (VLayout) WithElements(children []Content) Content { return VLayout{Children: children} }
func (InlineLayout) WithElements(children []Content) Content { return InlineLayout{Children: children} }
func (Table) WithElements(children []Content) Content { return Table{Children: children} }
func (Menu) WithElements(children []Content) Content { return Menu{Children: children} }

func (c Form) WithElements(children []Content) Content {
	return Form{Children: children, PostURL: c.PostURL}
}
