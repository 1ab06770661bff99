package domain

import "time"

// ExportDescriptor identifies a single export blob in a storage listing.
type ExportDescriptor struct {
	Name         string
	LastModified time.Time
}

// Exports holds the selection made for one run.
// Previous exports are nil when no export exists in the prior calendar month.
type Exports struct {
	LatestCost   ExportDescriptor
	PreviousCost *ExportDescriptor
	LatestAKS    ExportDescriptor
	PreviousAKS  *ExportDescriptor
}

func (e Exports) HasPreviousCost() bool {
	return e.PreviousCost != nil && e.PreviousCost.Name != e.LatestCost.Name
}

func (e Exports) HasPreviousAKS() bool {
	return e.PreviousAKS != nil && e.PreviousAKS.Name != e.LatestAKS.Name
}

// Manifest is the blob inventory index listing the CSV parts of one inventory run.
type Manifest struct {
	Files []ManifestFile `json:"files"`
}

type ManifestFile struct {
	Blob string `json:"blob"`
}

// Blobs returns the blob names referenced by the manifest, in manifest order.
func (m Manifest) Blobs() []string {
	blobs := make([]string, 0, len(m.Files))
	for _, f := range m.Files {
		blobs = append(blobs, f.Blob)
	}
	return blobs
}

// CopyResult is the outcome of a synchronous server-side copy.
type CopyResult struct {
	Source      string
	Destination string
	CopyID      string
	Status      string
}
