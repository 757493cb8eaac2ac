package envelope

import (
	"github.com/CTAG07/hcp/pkg/content"
	"github.com/google/uuid"
)

const (
	// FileYAMLMimeType is the MIME type of a YAML HCF.
	FileYAMLMimeType = "application/yaml+hcf"
	// FileJSONMimeType is the MIME type of a JSON HCF.
	FileJSONMimeType = "application/json+hcf"
	// RequestMimeType is the MIME type of an HCP request body.
	RequestMimeType = "application/cbor+hcprequest"
	// ResponseMimeType is the MIME type of an HCP response body.
	ResponseMimeType = "application/cbor+hcpresponse"
	// HeaderName is the protocol negotiation header.
	HeaderName = "HCP_INFO"
)

// File is the structure of an HCF. Content is an implicit VLayout.
type File struct {
	Content []content.Content
	// Extra holds data for use with features. It is never inspected.
	Extra map[string]any
}

// Request is the body of an HCP request.
type Request struct {
	// Features the client would like taken into account for this request.
	Features []string
	// Identities the client provides, keyed by scope.
	Identities map[string]uuid.UUID
	Extra      map[string]any
}

// Response is the body of an HCP response. Content is an implicit VLayout.
type Response struct {
	Content []content.Content
	Extra   map[string]any
}

// Header is the value of the HCP_INFO header.
type Header struct {
	// Scopes are the identity scopes the server wants to receive.
	Scopes []string `json:"scopes"`
	// Features the server supports.
	Features []string `json:"features"`
	// Required lists the features the server requires.
	Required []string `json:"required"`
}

// NewFile returns an empty File with a non-nil Extra map.
func NewFile(nodes ...content.Content) File {
	return File{Content: nodes, Extra: map[string]any{}}
}

// NewRequest returns a Request asking for the given features.
func NewRequest(features ...string) Request {
	return Request{
		Features:   features,
		Identities: map[string]uuid.UUID{},
		Extra:      map[string]any{},
	}
}

// Root returns the implicit VLayout wrapping the file's content.
func (f File) Root() content.VLayout {
	return content.VLayout{Children: f.Content}
}

// Root returns the implicit VLayout wrapping the response's content.
func (r Response) Root() content.VLayout {
	return content.VLayout{Children: r.Content}
}

// Response turns a file into a response body carrying the same content and
// extra data.
func (f File) Response() Response {
	return Response{Content: f.Content, Extra: f.Extra}
}
