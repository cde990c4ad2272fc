package graph

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/domain"
	"github.com/Intelligence-Builder/Cloud-Optimizer-sub001/internal/types"
)

// MockCall records a method invocation on the mock backend.
type MockCall struct {
	Method    string
	Args      []any
	Timestamp time.Time
}

// MockBackend is an in-memory Backend for testing. It implements the full
// operation contract, including breadth-first traversal, shortest path,
// idempotency keys and the delete-while-referenced conflict, so tests can use
// it both as a stub and as a parity reference against the real engines. All
// method calls are recorded for verification, and per-operation errors can be
// injected.
type MockBackend struct {
	mu sync.RWMutex

	domains domain.Registry

	connected bool
	nodes     map[types.ID]*Node
	edges     map[types.ID]*Edge
	byIdemKey map[string]types.ID
	calls     []MockCall

	errByOp map[string]error
}

// NewMockBackend creates an in-memory backend. A nil registry disables
// domain validation, which is what most stub-style tests want.
func NewMockBackend(domains domain.Registry) *MockBackend {
	return &MockBackend{
		domains:   domains,
		nodes:     make(map[types.ID]*Node),
		edges:     make(map[types.ID]*Edge),
		byIdemKey: make(map[string]types.ID),
		errByOp:   make(map[string]error),
	}
}

// SetError configures the named operation ("create_node", "traverse", ...) to
// fail with err. A nil err clears the injection.
func (m *MockBackend) SetError(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errByOp, operation)
		return
	}
	m.errByOp[operation] = err
}

func (m *MockBackend) record(method string, args ...any) {
	m.calls = append(m.calls, MockCall{Method: method, Args: args, Timestamp: time.Now()})
}

// injected returns the configured error for an operation, if any.
// Caller must hold the lock.
func (m *MockBackend) injected(operation string) error {
	return m.errByOp[operation]
}

func (m *MockBackend) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Connect")
	if err := m.injected("connect"); err != nil {
		return err
	}
	m.connected = true
	return nil
}

func (m *MockBackend) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Close")
	m.connected = false
	return nil
}

func (m *MockBackend) Health(ctx context.Context) types.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return types.Unhealthy("not connected")
	}
	return types.Healthy("in-memory backend")
}

func (m *MockBackend) CreateNode(ctx context.Context, spec NodeSpec) (*Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CreateNode", spec)
	if err := m.injected("create_node"); err != nil {
		return nil, err
	}
	return m.createNodeLocked(spec)
}

func (m *MockBackend) createNodeLocked(spec NodeSpec) (*Node, error) {
	if err := ValidateNodeSpec(m.domains, spec); err != nil {
		return nil, err
	}
	if spec.IdempotencyKey != "" {
		if existing, ok := m.byIdemKey[spec.IdempotencyKey]; ok {
			return copyNode(m.nodes[existing]), nil
		}
	}

	id := spec.ID
	if id.IsZero() {
		id = types.NewID()
	}
	if _, exists := m.nodes[id]; exists {
		return nil, NewConflictError("node id already exists: " + id.String())
	}

	now := time.Now().UTC()
	node := &Node{
		ID:         id,
		Type:       spec.Type,
		Domain:     spec.Domain,
		Name:       spec.Name,
		Properties: copyProps(spec.Properties),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.nodes[id] = node
	if spec.IdempotencyKey != "" {
		m.byIdemKey[spec.IdempotencyKey] = id
	}
	return copyNode(node), nil
}

func (m *MockBackend) GetNode(ctx context.Context, id types.ID) (*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("get_node"); err != nil {
		return nil, err
	}
	node, ok := m.nodes[id]
	if !ok {
		return nil, NewNotFoundError("node", id)
	}
	return copyNode(node), nil
}

func (m *MockBackend) UpdateNode(ctx context.Context, id types.ID, properties map[string]any) (*Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("UpdateNode", id, properties)
	if err := m.injected("update_node"); err != nil {
		return nil, err
	}
	node, ok := m.nodes[id]
	if !ok {
		return nil, NewNotFoundError("node", id)
	}
	if m.domains != nil {
		if err := m.domains.ValidateEntity(node.Domain, node.Type, properties); err != nil {
			return nil, err
		}
	}
	node.Properties = copyProps(properties)
	node.UpdatedAt = time.Now().UTC()
	return copyNode(node), nil
}

func (m *MockBackend) DeleteNode(ctx context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DeleteNode", id)
	if err := m.injected("delete_node"); err != nil {
		return err
	}
	if _, ok := m.nodes[id]; !ok {
		return NewNotFoundError("node", id)
	}
	for _, e := range m.edges {
		if e.SourceID == id || e.TargetID == id {
			return NewConflictError("node " + id.String() + " is still referenced by edges")
		}
	}
	delete(m.nodes, id)
	for key, nodeID := range m.byIdemKey {
		if nodeID == id {
			delete(m.byIdemKey, key)
		}
	}
	return nil
}

func (m *MockBackend) CreateEdge(ctx context.Context, spec EdgeSpec) (*Edge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CreateEdge", spec)
	if err := m.injected("create_edge"); err != nil {
		return nil, err
	}

	source, ok := m.nodes[spec.SourceID]
	if !ok {
		return nil, NewDanglingReferenceError("source", spec.SourceID)
	}
	target, ok := m.nodes[spec.TargetID]
	if !ok {
		return nil, NewDanglingReferenceError("target", spec.TargetID)
	}
	if err := ValidateEdgeSpec(m.domains, spec, source.Type, target.Type); err != nil {
		return nil, err
	}
	for _, e := range m.edges {
		if e.SourceID == spec.SourceID && e.TargetID == spec.TargetID && e.Type == spec.Type {
			return nil, NewConflictError("edge already exists between nodes")
		}
	}

	id := spec.ID
	if id.IsZero() {
		id = types.NewID()
	}
	edge := &Edge{
		ID:         id,
		Type:       spec.Type,
		Domain:     spec.Domain,
		SourceID:   spec.SourceID,
		TargetID:   spec.TargetID,
		Properties: copyProps(spec.Properties),
		CreatedAt:  time.Now().UTC(),
	}
	m.edges[id] = edge
	return copyEdge(edge), nil
}

func (m *MockBackend) GetEdge(ctx context.Context, id types.ID) (*Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("get_edge"); err != nil {
		return nil, err
	}
	edge, ok := m.edges[id]
	if !ok {
		return nil, NewNotFoundError("edge", id)
	}
	return copyEdge(edge), nil
}

func (m *MockBackend) DeleteEdge(ctx context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DeleteEdge", id)
	if err := m.injected("delete_edge"); err != nil {
		return err
	}
	if _, ok := m.edges[id]; !ok {
		return NewNotFoundError("edge", id)
	}
	delete(m.edges, id)
	return nil
}

func (m *MockBackend) Traverse(ctx context.Context, start types.ID, opts TraverseOptions) ([]Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("traverse"); err != nil {
		return nil, err
	}
	if _, ok := m.nodes[start]; !ok {
		return nil, NewNotFoundError("node", start)
	}

	allowed := map[string]bool{}
	for _, t := range opts.RelationshipTypes {
		allowed[t] = true
	}

	visited := map[types.ID]bool{start: true}
	frontier := []types.ID{start}
	for depth := 0; depth < opts.MaxDepth && len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, NewQueryError("traversal cancelled", err)
		}
		var next []types.ID
		for _, id := range frontier {
			for _, e := range m.edges {
				if e.SourceID != id {
					continue
				}
				if len(allowed) > 0 && !allowed[e.Type] {
					continue
				}
				if !visited[e.TargetID] {
					visited[e.TargetID] = true
					next = append(next, e.TargetID)
				}
			}
		}
		frontier = next
	}

	result := make([]Node, 0, len(visited))
	for id := range visited {
		result = append(result, *copyNode(m.nodes[id]))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

func (m *MockBackend) FindShortestPath(ctx context.Context, start, end types.ID) (*Path, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("find_shortest_path"); err != nil {
		return nil, err
	}
	if _, ok := m.nodes[start]; !ok {
		return nil, NewNotFoundError("node", start)
	}
	if _, ok := m.nodes[end]; !ok {
		return nil, NewNotFoundError("node", end)
	}
	if start == end {
		return &Path{NodeIDs: []types.ID{start}, Length: 0}, nil
	}

	// Plain BFS with parent tracking.
	parent := map[types.ID]types.ID{}
	visited := map[types.ID]bool{start: true}
	frontier := []types.ID{start}
	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, NewQueryError("path search cancelled", err)
		}
		var next []types.ID
		for _, id := range frontier {
			for _, e := range m.edges {
				if e.SourceID != id || visited[e.TargetID] {
					continue
				}
				visited[e.TargetID] = true
				parent[e.TargetID] = id
				if e.TargetID == end {
					return buildPath(parent, start, end), nil
				}
				next = append(next, e.TargetID)
			}
		}
		frontier = next
	}
	return nil, types.NewError(types.NOT_FOUND,
		"no path from "+start.String()+" to "+end.String())
}

func buildPath(parent map[types.ID]types.ID, start, end types.ID) *Path {
	ids := []types.ID{end}
	for cur := end; cur != start; {
		cur = parent[cur]
		ids = append(ids, cur)
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return &Path{NodeIDs: ids, Length: len(ids) - 1}
}

func (m *MockBackend) BatchCreateNodes(ctx context.Context, specs []NodeSpec) ([]*Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("BatchCreateNodes", specs)
	if err := m.injected("batch_create_nodes"); err != nil {
		return nil, err
	}

	// Snapshot state so a failing spec leaves no residue.
	savedNodes := make(map[types.ID]*Node, len(m.nodes))
	for k, v := range m.nodes {
		savedNodes[k] = v
	}
	savedKeys := make(map[string]types.ID, len(m.byIdemKey))
	for k, v := range m.byIdemKey {
		savedKeys[k] = v
	}

	created := make([]*Node, 0, len(specs))
	for _, spec := range specs {
		node, err := m.createNodeLocked(spec)
		if err != nil {
			m.nodes = savedNodes
			m.byIdemKey = savedKeys
			return nil, err
		}
		created = append(created, node)
	}
	return created, nil
}

func (m *MockBackend) CountByType(ctx context.Context, domainName string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("count_by_type"); err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, n := range m.nodes {
		if n.Domain == domainName {
			counts[n.Type]++
		}
	}
	return counts, nil
}

// Calls returns a copy of all recorded method calls.
func (m *MockBackend) Calls() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallsByMethod returns recorded calls to a specific method.
func (m *MockBackend) CallsByMethod(method string) []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var calls []MockCall
	for _, c := range m.calls {
		if c.Method == method {
			calls = append(calls, c)
		}
	}
	return calls
}

// NodeCount returns the number of stored nodes.
func (m *MockBackend) NodeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes)
}

// EdgeCount returns the number of stored edges.
func (m *MockBackend) EdgeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.edges)
}

// Reset clears all state and recorded calls.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.nodes = make(map[types.ID]*Node)
	m.edges = make(map[types.ID]*Edge)
	m.byIdemKey = make(map[string]types.ID)
	m.calls = nil
	m.errByOp = make(map[string]error)
}

func copyProps(props map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

func copyNode(n *Node) *Node {
	c := *n
	c.Properties = copyProps(n.Properties)
	return &c
}

func copyEdge(e *Edge) *Edge {
	c := *e
	c.Properties = copyProps(e.Properties)
	return &c
}
