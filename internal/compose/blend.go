package compose

import "image"

// alphaBlend mixes the color channels of fg into dst by the foreground alpha.
// Alpha is normalized by 256, so an opaque pixel keeps 1/256 of the
// background. The destination alpha channel is left untouched.
func alphaBlend(dst *image.NRGBA, dr image.Rectangle, fg *image.NRGBA, sp image.Point) {
	for y := 0; y < dr.Dy(); y++ {
		di := dst.PixOffset(dr.Min.X, dr.Min.Y+y)
		si := fg.PixOffset(sp.X, sp.Y+y)
		for x := 0; x < dr.Dx(); x++ {
			a := float64(fg.Pix[si+3]) / 256
			for c := 0; c < 3; c++ {
				dst.Pix[di+c] = uint8(float64(fg.Pix[si+c])*a + float64(dst.Pix[di+c])*(1-a))
			}
			di += 4
			si += 4
		}
	}
}
