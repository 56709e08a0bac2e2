package manifest

import (
	"path"
	"strconv"
	"strings"

	"github.com/viant/mmvec/result"
)

// DemoImages lists the sports images of the demo collection, in id order.
var DemoImages = []string{
	"archery", "baseball", "basketball", "bowling", "discgolf",
	"f1", "fieldhockey", "hockey", "jousting", "snowboarding",
}

var demoNames = []string{
	"Archery image", "Baseball image", "Basketball image", "bowling image", "discgolf image",
	"f1 image", "fieldhockey image", "hockey image", "jousting image", "snowboarding image",
}

// Demo returns the ten sports image records with ids "1".."10" and uris
// <dir>/<name>.jpg.
func Demo(dir string) *Manifest {
	m := &Manifest{Entries: make([]Entry, len(DemoImages))}
	for i, name := range DemoImages {
		id := strconv.Itoa(i + 1)
		category := "sport"
		if i == 0 {
			category = "sports"
		}
		uri := path.Join(dir, name+".jpg")
		if !path.IsAbs(uri) && !strings.HasPrefix(uri, "../") {
			uri = "./" + uri
		}
		m.Entries[i] = Entry{
			ID:  id,
			URI: uri,
			Metadata: result.Metadata{
				"item_id":   id,
				"category":  category,
				"item_name": demoNames[i],
			},
		}
	}
	return m
}
