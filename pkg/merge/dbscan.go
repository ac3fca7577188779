package merge

// Clustering constants. With minPoints at zero every region is a core point,
// so no region is ever noise and clusters are the connected components of
// the "within eps" relation.
const (
	eps       = 1.0
	minPoints = 0
)

const (
	unvisited = 0
	noise     = -1
)

// dbscan groups n items given an eps-neighbourhood query. Clusters come back
// ordered by their lowest member index, members ascending.
func dbscan(n int, query func(i int) ([]int, error)) ([][]int, error) {
	labels := make([]int, n) // 0=unvisited, -1=noise, >0=clusterID
	clusterID := 0

	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}

		neighbors, err := query(i)
		if err != nil {
			return nil, err
		}
		if len(neighbors) < minPoints {
			labels[i] = noise
			continue
		}

		clusterID++
		if err := expandCluster(labels, i, neighbors, clusterID, query); err != nil {
			return nil, err
		}
	}

	clusters := make([][]int, clusterID)
	for i, label := range labels {
		if label > 0 {
			clusters[label-1] = append(clusters[label-1], i)
		}
	}
	return clusters, nil
}

// expandCluster grows a cluster from a core point.
func expandCluster(labels []int, seed int, neighbors []int, clusterID int, query func(i int) ([]int, error)) error {
	labels[seed] = clusterID

	// Use a queue-based approach for expansion
	for j := 0; j < len(neighbors); j++ {
		idx := neighbors[j]

		if labels[idx] == noise {
			labels[idx] = clusterID // Noise becomes border point
		}
		if labels[idx] != unvisited {
			continue
		}

		labels[idx] = clusterID
		next, err := query(idx)
		if err != nil {
			return err
		}
		if len(next) >= minPoints {
			neighbors = append(neighbors, next...)
		}
	}
	return nil
}
