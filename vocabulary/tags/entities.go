package tags

import "github.com/google/uuid"

var (
	tagSpace  = uuid.NewSHA1(uuid.NameSpaceURL, []byte(EntityNamespace+"tag"))
	fileSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(EntityNamespace+"file"))
	dataSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(EntityNamespace+"data"))
)

// TagIRI returns the IRI of the tag resource for label. The IRI is derived
// from the label alone, so every writer agrees on it.
func TagIRI(label string) string {
	return EntityNamespace + "tag:" + uuid.NewSHA1(tagSpace, []byte(label)).String()
}

// FileIRI returns the IRI of the file resource stored at url.
func FileIRI(url string) string {
	return EntityNamespace + "file:" + uuid.NewSHA1(fileSpace, []byte(url)).String()
}

// DataObjectIRI returns the IRI of the data object carrying url.
func DataObjectIRI(url string) string {
	return EntityNamespace + "data:" + uuid.NewSHA1(dataSpace, []byte(url)).String()
}
