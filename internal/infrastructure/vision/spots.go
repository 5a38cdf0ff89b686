//go:build gocv
// +build gocv

package vision

import (
	"gocv.io/x/gocv"

	"leaf-health-bot/internal/domain/entity"
)

// analyzeSpots находит внешние контуры некроза и классифицирует их по форме.
// Классификация эвристическая и диагнозом не является.
func analyzeSpots(brown gocv.Mat) entity.SpotSummary {
	contours := gocv.FindContours(brown, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	records := make([]entity.SpotRecord, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		rec, ok := entity.NewSpotRecord(gocv.ContourArea(c), gocv.ArcLength(c, true))
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return entity.SummarizeSpots(records)
}
