package viewmap

// Info summarizes the view map a build would produce, without computing it.
type Info struct {
	Layout
	Period              int64 `json:"period"`
	IntrinsicResolution int64 `json:"intrinsic_resolution"`
	PatternX            int64 `json:"pattern_x"`
	PatternY            int64 `json:"pattern_y"`
	TileWidth           int   `json:"tile_width"`
	TileHeight          int   `json:"tile_height"`
}

// Describe validates m and opts like Build and reports the resulting layout
// and lens geometry.
func Describe(m *Monitor, opts BuildOptions) (Info, error) {
	p, err := NewPlan(m, opts)
	if err != nil {
		return Info{}, err
	}
	res, err := NewResolver(m)
	if err != nil {
		return Info{}, err
	}
	px, py := res.PatternPeriod()
	tw, th := p.Tile()
	return Info{
		Layout:              p.Layout,
		Period:              res.Period(),
		IntrinsicResolution: res.IntrinsicResolution(),
		PatternX:            px,
		PatternY:            py,
		TileWidth:           tw,
		TileHeight:          th,
	}, nil
}
