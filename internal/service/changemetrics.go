package service

import (
	"github.com/quillforum/quill-backend/internal/domain"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ComputeChangeMetrics diffs two rendered HTML strings and counts inserted
// and deleted characters. It is the edit-magnitude signal stored on every
// revision: a quick distinguisher between small and large changes on
// revision history lists.
//
// The unit is characters (bytes of UTF-8 are not used; the diff operates on
// runes via diffmatchpatch). The metric is symmetric:
// ComputeChangeMetrics(a, b).Added == ComputeChangeMetrics(b, a).Removed.
// For a field's first revision the previous HTML is empty, so Removed == 0
// and Added is the full length of the new content.
func ComputeChangeMetrics(previousHTML, newHTML string) domain.ChangeMetrics {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(previousHTML, newHTML, false)

	var metrics domain.ChangeMetrics
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			metrics.Added += len([]rune(d.Text))
		case diffmatchpatch.DiffDelete:
			metrics.Removed += len([]rune(d.Text))
		}
	}
	return metrics
}
