/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

package builder

import (
	"time"

	specs "github.com/opencontainers/image-spec/specs-go/v1"
)

// ImageMetadata describes the source of a build for the standard OCI labels.
type ImageMetadata struct {
	Version  string
	Revision string
	Source   string
	Authors  string
	Created  time.Time
}

// OCILabels returns key=value labels for the org.opencontainers.image.*
// annotations that have a value.
func OCILabels(meta ImageMetadata) []string {
	var labels []string
	add := func(key, value string) {
		if value != "" {
			labels = append(labels, key+"="+value)
		}
	}

	add(specs.AnnotationVersion, meta.Version)
	add(specs.AnnotationRevision, meta.Revision)
	add(specs.AnnotationSource, meta.Source)
	add(specs.AnnotationAuthors, meta.Authors)
	if !meta.Created.IsZero() {
		add(specs.AnnotationCreated, meta.Created.UTC().Format(time.RFC3339))
	}
	return labels
}
