// Package classify assigns execution artifacts to rendering categories.
package classify

import "github.com/datenblick/datenblick/pkg/api"

// Classify inspects an artifact's display capabilities and picks its
// rendering category. Capabilities are checked in a fixed priority order;
// the first match wins:
//
//	png > figure > show > table > raw
//
// The order resolves ambiguity when an artifact exposes more than one
// capability. An interactive chart that also carries a cached PNG renders
// as an image: the PNG is the cheapest and most universally displayable
// form. Callers must not reorder these checks.
func Classify(a api.Artifact) api.ClassifiedArtifact {
	var cat api.Category
	switch {
	case a.PNG != "":
		cat = api.CategoryImage
	case a.Figure != nil:
		cat = api.CategoryFigure
	case a.Show != nil:
		cat = api.CategoryInteractiveChart
	case a.Table != nil:
		cat = api.CategoryTabular
	default:
		cat = api.CategoryRaw
	}
	return api.ClassifiedArtifact{Category: cat, Artifact: a}
}

// All classifies a result list, preserving the execution's ordering.
// A non-nil empty slice is returned for an empty input so callers can
// distinguish "ran and produced nothing" from "did not run".
func All(artifacts []api.Artifact) []api.ClassifiedArtifact {
	classified := make([]api.ClassifiedArtifact, 0, len(artifacts))
	for _, a := range artifacts {
		classified = append(classified, Classify(a))
	}
	return classified
}
