package recommender

import (
	"math"

	"gigrecs/domain"
)

// InteractionMatrix is a sparse user x event matrix. Row and column
// positions come from the order of first appearance of each distinct
// user id / event id in the interaction set; the index maps are bijective
// onto [0, NumUsers) and [0, NumEvents) and are only meaningful within
// the snapshot that owns them.
type InteractionMatrix struct {
	Rows      []map[int]float64 `json:"rows"`
	NumUsers  int               `json:"num_users"`
	NumEvents int               `json:"num_events"`
}

// BuildInteractionMatrix folds interactions into the sparse matrix and
// the bidirectional index maps. Duplicate (user, event) rows are summed,
// matching how the matrix would accumulate repeated observations.
func BuildInteractionMatrix(interactions []domain.Interaction) (*InteractionMatrix, map[string]int, map[string]int, []string, []string) {
	userIdx := make(map[string]int)
	eventIdx := make(map[string]int)
	userIDs := make([]string, 0)
	eventIDs := make([]string, 0)

	rows := make([]map[int]float64, 0)

	for _, in := range interactions {
		ui, ok := userIdx[in.UserID]
		if !ok {
			ui = len(userIDs)
			userIdx[in.UserID] = ui
			userIDs = append(userIDs, in.UserID)
			rows = append(rows, make(map[int]float64))
		}

		ei, ok := eventIdx[in.EventID]
		if !ok {
			ei = len(eventIDs)
			eventIdx[in.EventID] = ei
			eventIDs = append(eventIDs, in.EventID)
		}

		rows[ui][ei] += in.Score
	}

	m := &InteractionMatrix{
		Rows:      rows,
		NumUsers:  len(userIDs),
		NumEvents: len(eventIDs),
	}

	return m, userIdx, eventIdx, userIDs, eventIDs
}

// Row returns the sparse row for a user index, nil when out of range.
func (m *InteractionMatrix) Row(userIdx int) map[int]float64 {
	if userIdx < 0 || userIdx >= len(m.Rows) {
		return nil
	}
	return m.Rows[userIdx]
}

// NonzeroCells counts cells with a non-zero accumulated score. Offsetting
// interactions (a save cancelled by hides) can zero a stored cell; those
// do not count towards coverage.
func (m *InteractionMatrix) NonzeroCells() int {
	n := 0
	for _, row := range m.Rows {
		for _, v := range row {
			if v != 0 {
				n++
			}
		}
	}
	return n
}

// CosineSimilarity computes the symmetric user x user similarity matrix
// over the rows of m. Rows with zero norm get similarity 0 everywhere,
// including against themselves.
func CosineSimilarity(m *InteractionMatrix) [][]float64 {
	n := m.NumUsers
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}

	norms := make([]float64, n)
	for i, row := range m.Rows {
		sum := 0.0
		for _, v := range row {
			sum += v * v
		}
		norms[i] = math.Sqrt(sum)
	}

	for i := 0; i < n; i++ {
		if norms[i] == 0 {
			continue
		}
		for j := i; j < n; j++ {
			if norms[j] == 0 {
				continue
			}

			dot := 0.0
			for col, v := range m.Rows[i] {
				if w, ok := m.Rows[j][col]; ok {
					dot += v * w
				}
			}

			s := dot / (norms[i] * norms[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}

	return sim
}

// meanSimilarity averages every entry of the similarity matrix,
// self-similarities included.
func meanSimilarity(sim [][]float64) float64 {
	n := len(sim)
	if n == 0 {
		return 0
	}

	sum := 0.0
	for i := range sim {
		for j := range sim[i] {
			sum += sim[i][j]
		}
	}

	return sum / float64(n*n)
}
