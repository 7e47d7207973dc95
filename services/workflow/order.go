package workflow

// OrderUnresolved is the execution order assigned to nodes that cannot be
// linearized because they participate in a cycle. The downstream runtime
// treats it as "not safely orderable"; the sync engine never rejects a
// cyclic graph, because refusing to save would block the user from fixing
// it in the editor.
const OrderUnresolved = 0

// executionOrders computes an execution order for every node using Kahn's
// algorithm. Orders start at 1 and increase by one per assignment; ties are
// broken by queue order, which is seeded from node slice order, so the
// result is deterministic. Edges touching unknown node ids are ignored.
// Every node in nodes appears in the returned map exactly once.
func executionOrders(nodes []Node, edges []Edge) map[string]int {
	orders := make(map[string]int, len(nodes))
	if len(nodes) == 0 {
		return orders
	}

	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	successors := make(map[string][]string, len(nodes))
	inDegree := make(map[string]int, len(nodes))
	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		successors[e.Source] = append(successors[e.Source], e.Target)
		inDegree[e.Target]++
	}

	var queue []string
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	next := 1
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		orders[id] = next
		next++

		for _, succ := range successors[id] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	// Anything the queue never reached sits on a cycle (a self-loop keeps
	// its own in-degree above zero and lands here too).
	for _, n := range nodes {
		if _, ok := orders[n.ID]; !ok {
			orders[n.ID] = OrderUnresolved
		}
	}
	return orders
}
