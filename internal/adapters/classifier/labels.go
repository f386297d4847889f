// Package classifier provides image classifiers that rank bird labels for a
// frame: a Hugging Face Inference API client and a simulated model.
package classifier

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/okian/bainoculars/internal/domain/model"
)

// NormalizeLabel trims and title-cases a raw model label, so "AMERICAN
// ROBIN" and "american robin" both become "American Robin".
func NormalizeLabel(raw string) string {
	s := strings.Join(strings.Fields(strings.ReplaceAll(raw, "_", " ")), " ")
	return cases.Title(language.English).String(strings.ToLower(s))
}

// rank sorts predictions by confidence, highest first.
func rank(preds []model.Prediction) []model.Prediction {
	sort.SliceStable(preds, func(i, j int) bool { return preds[i].Confidence > preds[j].Confidence })
	return preds
}
