package experiment

import "hash/fnv"

// bucketResolution trades hash granularity for readable fractions;
// 1/10000 steps are far finer than any variant weight in use.
const bucketResolution = 10000

// hashFraction maps a user id to a stable value in [0, 1). FNV-64a over
// the raw id bytes keeps the mapping identical across processes and
// hosts, which is what makes assignment deterministic before anything is
// persisted.
func hashFraction(userID string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(userID))
	return float64(h.Sum64()%bucketResolution) / bucketResolution
}
