// Package envelope holds the HCF file, HCP request/response and HCP_INFO
// header schemas, and the YAML, JSON and CBOR codecs that move content trees
// in and out of them.
package envelope
