package retriever

// HitAtK reports whether relevant appears among the retrieved IDs.
func HitAtK(retrieved []string, relevant string) bool {
	for _, r := range retrieved {
		if r == relevant {
			return true
		}
	}
	return false
}

// ReciprocalRank is 1/rank of the first relevant ID, or 0 if absent.
func ReciprocalRank(retrieved []string, relevant string) float64 {
	for i, r := range retrieved {
		if r == relevant {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

func PrecisionAtK(retrieved, relevant []string) float64 {
	if len(retrieved) == 0 {
		return 0
	}
	relevantSet := make(map[string]bool)
	for _, r := range relevant {
		relevantSet[r] = true
	}
	hits := 0
	for _, r := range retrieved {
		if relevantSet[r] {
			hits++
		}
	}
	return float64(hits) / float64(len(retrieved))
}
