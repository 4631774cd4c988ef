package store

// Batch accumulates extraction results for a single file under negative,
// "fake" ids that are remapped to real ids at commit time. Workers write
// only into their own Batch; nothing here touches the database, matching
// the extractor's "no IO, no store access" contract upstream.
type Batch struct {
	FilePath string

	Symbols    []Symbol
	Parameters []Parameter
	Edges      []pendingEdge
	External   []ExternalDependency

	nextFakeID int64
}

// pendingEdge mirrors Edge but keeps endpoints as fake ids until commit,
// since an edge may point at a symbol defined later in the same batch.
type pendingEdge struct {
	SourceID     int64
	SourceType   EndpointType
	TargetID     int64
	TargetType   EndpointType
	Relationship Relationship
	Line         int
	Confidence   float64
}

// NewBatch creates an empty batch for the given file path.
func NewBatch(path string) *Batch {
	return &Batch{FilePath: path, nextFakeID: -1}
}

// AddSymbol appends a symbol and returns its fake id for use by parameters
// and edges added later in the same batch.
func (b *Batch) AddSymbol(sym Symbol) int64 {
	id := b.nextFakeID
	b.nextFakeID--
	sym.ID = id
	b.Symbols = append(b.Symbols, sym)
	return id
}

// AddParameter appends a parameter belonging to a symbol identified by fake
// or real id.
func (b *Batch) AddParameter(symbolID int64, p Parameter) {
	p.SymbolID = symbolID
	b.Parameters = append(b.Parameters, p)
}

// AddEdge appends an edge whose symbol endpoints may be fake (pending in
// this batch, negative) or real (already committed) ids. A file endpoint
// with id 0 resolves to the batch's own file at commit time.
func (b *Batch) AddEdge(e Edge) {
	b.Edges = append(b.Edges, pendingEdge{
		SourceID: e.SourceID, SourceType: e.SourceType,
		TargetID: e.TargetID, TargetType: e.TargetType,
		Relationship: e.Relationship, Line: e.Line, Confidence: e.Confidence,
	})
}

// AddExternal appends an external dependency record.
func (b *Batch) AddExternal(dep ExternalDependency) {
	b.External = append(b.External, dep)
}
