package model

import (
	"github.com/m-mizutani/goerr/v2"
)

// ChunkSource identifies which record collection a chunk was built from
type ChunkSource string

const (
	ChunkSourceProfile     ChunkSource = "profile"
	ChunkSourceTemplate    ChunkSource = "template"
	ChunkSourceSentEmail   ChunkSource = "sent_email"
	ChunkSourceUserProfile ChunkSource = "user_profile"
)

// Sensitivity grades how much care retrieved text needs before it is
// shown to a model
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// Chunk is a normalized, sensitivity-tagged retrieval unit built from one
// application record. Chunks are rebuilt from the record store on every
// request and never persisted.
type Chunk struct {
	ID          string
	Text        string
	Source      ChunkSource
	SourceID    string
	Sensitivity Sensitivity
}

// Validate checks if the chunk is well-formed
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return goerr.New("chunk ID is empty")
	}
	switch c.Source {
	case ChunkSourceProfile, ChunkSourceTemplate, ChunkSourceSentEmail, ChunkSourceUserProfile:
	default:
		return goerr.New("invalid chunk source", goerr.V("source", c.Source))
	}
	switch c.Sensitivity {
	case SensitivityLow, SensitivityMedium, SensitivityHigh:
	default:
		return goerr.New("invalid sensitivity", goerr.V("sensitivity", c.Sensitivity))
	}
	return nil
}
