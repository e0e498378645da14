package pipeline

import (
	"fmt"
	"sort"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	hungarianAlgorithm "github.com/oddg/hungarian-algorithm"

	"cargodocs/internal"
)

// candidateLimit caps how many reference codes compete for one OCR code
// before the global assignment runs.
const candidateLimit = 7

const costScale = 10000

// MatchContainers pairs OCR-recognized container codes with reference codes
// from 1C. Exact matches are claimed first and their reference codes leave
// the pool. The remaining codes go through similarity scoring and a global
// minimum-cost assignment, so every reference code is used at most once.
// The result is aligned with ocrCodes: one entry per input, in order, with
// an empty DbCode when nothing cleared the threshold.
func MatchContainers(ocrCodes, dbCodes []string, threshold float64) ([]internal.ContainerMatch, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be in (0, 1], got %v", threshold)
	}

	results := make([]internal.ContainerMatch, len(ocrCodes))
	for i, code := range ocrCodes {
		results[i] = internal.ContainerMatch{OcrCode: code}
	}
	if len(ocrCodes) == 0 || len(dbCodes) == 0 {
		return results, nil
	}

	pool := make(map[string]bool, len(dbCodes))
	for _, code := range dbCodes {
		if code != "" {
			pool[code] = true
		}
	}

	var pending []int
	for i, code := range ocrCodes {
		if pool[code] {
			results[i].DbCode = code
			results[i].Similarity = 1.0
			delete(pool, code)
		} else {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 || len(pool) == 0 {
		return results, nil
	}

	remaining := make([]string, 0, len(pool))
	for code := range pool {
		remaining = append(remaining, code)
	}
	sort.Strings(remaining)

	lev := metrics.NewLevenshtein()
	similarity := make([][]float64, len(pending))
	any := false
	for row, idx := range pending {
		similarity[row] = scoreCandidates(ocrCodes[idx], remaining, threshold, lev)
		for _, sim := range similarity[row] {
			if sim > 0 {
				any = true
			}
		}
	}
	if !any {
		return results, nil
	}

	assignment, err := hungarianAlgorithm.Solve(costMatrix(similarity, len(remaining)))
	if err != nil {
		return nil, fmt.Errorf("assignment: %w", err)
	}

	for row, idx := range pending {
		col := assignment[row]
		if col >= len(remaining) {
			continue
		}
		if sim := similarity[row][col]; sim >= threshold {
			results[idx].DbCode = remaining[col]
			results[idx].Similarity = sim
		}
	}
	return results, nil
}

// scoreCandidates scores one OCR code against every remaining reference
// code, keeping only the candidateLimit best that clear the threshold.
func scoreCandidates(ocrCode string, dbCodes []string, threshold float64, lev *metrics.Levenshtein) []float64 {
	scores := make([]float64, len(dbCodes))
	cols := make([]int, 0, len(dbCodes))
	for j, dbCode := range dbCodes {
		sim := strutil.Similarity(ocrCode, dbCode, lev)
		if sim >= threshold {
			scores[j] = sim
			cols = append(cols, j)
		}
	}
	if len(cols) > candidateLimit {
		sort.Slice(cols, func(a, b int) bool { return scores[cols[a]] > scores[cols[b]] })
		for _, j := range cols[candidateLimit:] {
			scores[j] = 0
		}
	}
	return scores
}

// costMatrix converts similarities into a square integer cost matrix for
// the assignment solver, padding the short side with maximum cost.
func costMatrix(similarity [][]float64, nCols int) [][]int {
	size := len(similarity)
	if nCols > size {
		size = nCols
	}
	matrix := make([][]int, size)
	for i := range matrix {
		matrix[i] = make([]int, size)
		for j := range matrix[i] {
			cost := costScale
			if i < len(similarity) && j < nCols {
				cost = costScale - int(similarity[i][j]*costScale)
			}
			matrix[i][j] = cost
		}
	}
	return matrix
}

// CorrectContainerCodes rewrites OCR container codes on the document with
// their matched reference codes, recording a note for every replacement.
func CorrectContainerCodes(doc *internal.Document, dbCodes []string, threshold float64) error {
	ocrCodes := make([]string, len(doc.Containers))
	for i, cont := range doc.Containers {
		ocrCodes[i] = cont.Code
	}
	matches, err := MatchContainers(ocrCodes, dbCodes, threshold)
	if err != nil {
		return err
	}
	for i, match := range matches {
		if match.DbCode == "" || match.DbCode == doc.Containers[i].Code {
			continue
		}
		doc.Notes.Add(fmt.Sprintf(
			"Распознанный номер контейнера %s был заменен на %s. Similarity: %.4f",
			doc.Containers[i].Code, match.DbCode, match.Similarity,
		))
		doc.Containers[i].Code = match.DbCode
	}
	return nil
}
