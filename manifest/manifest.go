// Package manifest reads ingestion manifests: YAML lists of records that
// reference their content by URI.
//
//	# images.yaml
//	- id: "1"
//	  uri: ./images/archery.jpg
//	  metadata:
//	    item_id: "1"
//	    category: sports
//	    item_name: Archery image
package manifest

import (
	"bytes"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/result"
	"github.com/viant/mmvec/store"
)

// Entry is one record of a manifest. Entries without an id get a random UUID.
type Entry struct {
	ID       string          `yaml:"id,omitempty"`
	URI      string          `yaml:"uri,omitempty"`
	Document string          `yaml:"document,omitempty"`
	Metadata result.Metadata `yaml:"metadata,omitempty"`
}

// Manifest is an ordered list of entries.
type Manifest struct {
	Entries []Entry
}

// Load reads a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeManifestParseInvalid, "manifest: reading file", mmerr.Field("path", path))
	}
	m, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeManifestParseInvalid, "manifest: parsing file", mmerr.Field("path", path))
	}
	return m, nil
}

// Parse decodes a YAML manifest. Every entry needs a uri or a document, and
// all entries must agree on which of the two they supply.
func Parse(r io.Reader) (*Manifest, error) {
	var entries []Entry
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil && err != io.EOF {
		return nil, mmerr.Wrap(err, mmerr.CodeManifestParseInvalid, "manifest: invalid yaml")
	}
	if len(entries) == 0 {
		return nil, mmerr.New(mmerr.CodeManifestParseInvalid, "manifest: no entries")
	}
	hasURI := entries[0].URI != ""
	hasDocument := entries[0].Document != ""
	for i := range entries {
		e := &entries[i]
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.URI == "" && e.Document == "" {
			return nil, mmerr.New(mmerr.CodeManifestParseInvalid, "manifest: entry needs a uri or a document",
				mmerr.Field("entry", i), mmerr.FieldID(e.ID))
		}
		if (e.URI != "") != hasURI {
			return nil, mmerr.New(mmerr.CodeManifestParseInvalid, "manifest: entries must all supply uris or all supply documents",
				mmerr.Field("entry", i), mmerr.FieldID(e.ID))
		}
		if (e.Document != "") != hasDocument {
			return nil, mmerr.New(mmerr.CodeManifestParseInvalid, "manifest: documents must be given for every entry or for none",
				mmerr.Field("entry", i), mmerr.FieldID(e.ID))
		}
	}
	return &Manifest{Entries: entries}, nil
}

// ToRecords converts the manifest into positional parallel lists.
func (m *Manifest) ToRecords() store.Records {
	var recs store.Records
	withMetadata := false
	for _, e := range m.Entries {
		if len(e.Metadata) > 0 {
			withMetadata = true
		}
	}
	for _, e := range m.Entries {
		recs.IDs = append(recs.IDs, e.ID)
		if e.URI != "" {
			recs.URIs = append(recs.URIs, e.URI)
		}
		if e.Document != "" {
			recs.Documents = append(recs.Documents, e.Document)
		}
		if withMetadata {
			recs.Metadatas = append(recs.Metadatas, e.Metadata)
		}
	}
	return recs
}

// Marshal encodes the manifest as YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m.Entries); err != nil {
		return nil, mmerr.Wrap(err, mmerr.CodeManifestParseInvalid, "manifest: encoding")
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
