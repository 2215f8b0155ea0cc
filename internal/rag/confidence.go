package rag

import (
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
)

// Confidence blends the best similarity with the mean of the chunks that
// went into the context. It is 0 without chunks and stays below High when
// fewer than topK chunks were retrieved.
func Confidence(scores []float64, retrieved, topK int) float64 {
	if len(scores) == 0 {
		return 0
	}
	top, sum := scores[0], 0.0
	for _, s := range scores {
		if s > top {
			top = s
		}
		sum += s
	}
	mean := sum / float64(len(scores))
	c := clamp01(0.6*top + 0.4*mean)
	if retrieved < topK && c > config.PartialRetrievalCap {
		c = config.PartialRetrievalCap
	}
	return c
}

func ConfidenceLevelFor(confidence float64) ragModel.ConfidenceLevel {
	switch {
	case confidence >= config.HighConfidenceThreshold:
		return ragModel.ConfidenceHigh
	case confidence >= config.MediumConfidenceThreshold:
		return ragModel.ConfidenceMedium
	default:
		return ragModel.ConfidenceLow
	}
}

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
