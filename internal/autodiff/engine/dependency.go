package engine

// prepareDeps is the breadth-first sweep described in spec.md §4.3: starting
// from initNode, it populates nodeDeps (remaining incoming edges per node in
// reverse traversal) and provisions every accumulator the traversal
// discovers. Precondition: registry and nodeDeps must be empty, enforced by
// the caller (Engine.Execute) via AlreadyInitialized.
func prepareDeps(initNode *GradNode, registry *AccumulatorRegistry) (map[*GradNode]int, error) {
	nodeDeps := make(map[*GradNode]int)
	visited := map[*GradNode]bool{initNode: true}
	queue := []*GradNode{initNode}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, op := range cur.ops {
			if err := registry.prepareGradAccumulators(op, cur, cur.pending); err != nil {
				return nil, err
			}
		}

		for _, pending := range cur.pending {
			if pending == nil {
				return nil, wrapOpError(ErrMissingNode, cur, nil, nil)
			}
			nodeDeps[pending]++
			if !visited[pending] {
				visited[pending] = true
				queue = append(queue, pending)
			}
		}
	}

	return nodeDeps, nil
}
