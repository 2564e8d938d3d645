package cache

// LayoutKeyOpts are the options that influence the layout-stage output:
// the chosen root plus the radial layout constants.
type LayoutKeyOpts struct {
	RootID       string
	RootX        float64
	RootY        float64
	RootAlpha    float64
	RootRay      float64
	ZoomConst    float64
	PolySamples  int
	MinWedgeDesc int
}

// TileKeyOpts are the options that influence tile output.
type TileKeyOpts struct {
	Budget   int
	FastPath int
	YMin     float64
	YMax     float64
}

// Keyer generates cache keys for the cacheable pipeline stages. The
// first argument is always the content hash of the stage's input.
type Keyer interface {
	LayoutKey(inputHash string, opts LayoutKeyOpts) string
	TileKey(layoutHash string, opts TileKeyOpts) string
}

// DefaultKeyer hashes the input hash together with the option structs.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// LayoutKey generates a key for cached layout node sets.
func (k *DefaultKeyer) LayoutKey(inputHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", inputHash, opts)
}

// TileKey generates a key for cached tile sets.
func (k *DefaultKeyer) TileKey(layoutHash string, opts TileKeyOpts) string {
	return hashKey("tiles", layoutHash, opts)
}
