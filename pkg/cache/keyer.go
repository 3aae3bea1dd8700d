package cache

// Keyer derives cache keys for the pipeline stages.
type Keyer interface {
	// ExtractKey keys a document extracted from a canvas.
	ExtractKey(canvasHash string, opts ExtractKeyOpts) string
	// ComposeKey keys the composition of a document.
	ComposeKey(documentHash string) string
	// RenderKey keys one serialized output of a composition.
	RenderKey(documentHash string, opts RenderKeyOpts) string
	// PlanKey keys the plan built for a document's warnings.
	PlanKey(documentHash string) string
}

// ExtractKeyOpts are the extraction inputs besides the canvas itself.
type ExtractKeyOpts struct {
	Zoom     float64 `json:"zoom"`
	Template string  `json:"template,omitempty"`
}

// RenderKeyOpts are the serialization inputs.
type RenderKeyOpts struct {
	Format string `json:"format"`
	Labels bool   `json:"labels,omitempty"`
}

// DefaultKeyer is the standard key scheme: "stage:sha256(inputs)".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) ExtractKey(canvasHash string, opts ExtractKeyOpts) string {
	return hashKey("extract", canvasHash, opts)
}

func (DefaultKeyer) ComposeKey(documentHash string) string {
	return hashKey("compose", documentHash)
}

func (DefaultKeyer) RenderKey(documentHash string, opts RenderKeyOpts) string {
	return hashKey("render", documentHash, opts)
}

func (DefaultKeyer) PlanKey(documentHash string) string {
	return hashKey("plan", documentHash)
}

var _ Keyer = DefaultKeyer{}
