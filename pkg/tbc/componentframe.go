package tbc

// ComponentFrame holds the three component planes produced by a decode
// engine. The planes are interlaced frame sized (FieldWidth wide,
// 2*FieldHeight-1 tall) and are not yet cropped to the active picture.
// A frame is produced fresh per decode call and consumed by the output
// normalizer.
type ComponentFrame struct {
	width  int
	height int
	yData  []float64
	uData  []float64
	vData  []float64
}

// Init sizes the frame for the given capture and zeroes all planes.
func (f *ComponentFrame) Init(vp VideoParameters) {
	f.width = vp.FieldWidth
	f.height = 2*vp.FieldHeight - 1
	n := f.width * f.height
	f.yData = make([]float64, n)
	f.uData = make([]float64, n)
	f.vData = make([]float64, n)
}

// Width returns the plane width in samples.
func (f *ComponentFrame) Width() int { return f.width }

// Height returns the plane height in lines.
func (f *ComponentFrame) Height() int { return f.height }

// Y returns the luma samples of one frame line.
func (f *ComponentFrame) Y(line int) []float64 {
	return f.yData[line*f.width : (line+1)*f.width]
}

// U returns the U color-difference samples of one frame line.
func (f *ComponentFrame) U(line int) []float64 {
	return f.uData[line*f.width : (line+1)*f.width]
}

// V returns the V color-difference samples of one frame line.
func (f *ComponentFrame) V(line int) []float64 {
	return f.vData[line*f.width : (line+1)*f.width]
}
