package mdtiff

import (
	"math"
	"sort"
	"strings"

	"github.com/hupe1980/mdtiff/internal/tiff"
)

// uniformSpacing checks that values are regularly spaced within a relative
// tolerance of 1e-3 and returns the spacing.
func uniformSpacing(vals []float64) (float64, bool) {
	if len(vals) < 2 {
		return 0, false
	}
	spacing := (vals[len(vals)-1] - vals[0]) / float64(len(vals)-1)
	if spacing == 0 {
		return 0, false
	}
	for i := 0; i+1 < len(vals); i++ {
		if math.Abs(vals[i+1]-vals[i]-spacing) > 1e-3*math.Abs(spacing) {
			return 0, false
		}
	}
	return spacing, true
}

// guessGeoTransform derives an affine mapping from the trailing indexing
// variables. The returned origin is the coordinate of the first sample
// center (point convention). Non-uniform or missing coordinates yield no
// transform; the indexing variables then remain the only georeference.
func (a *Array) guessGeoTransform() ([6]float64, bool) {
	var gt [6]float64
	n := len(a.dims)
	yv := a.dims[n-2].indexing
	xv := a.dims[n-1].indexing
	if xv == nil || yv == nil || xv.isString || yv.isString {
		return gt, false
	}
	dx, okx := uniformSpacing(xv.nums)
	dy, oky := uniformSpacing(yv.nums)
	if !okx || !oky {
		return gt, false
	}
	gt[0] = xv.nums[0]
	gt[1] = dx
	gt[3] = yv.nums[0]
	gt[5] = dy
	return gt, true
}

// writeGeoTags persists the geotransform and geokeys into one directory.
// A north-up transform (dy < 0) uses the pixel scale and tie point tags;
// otherwise the full 4x4 matrix is written.
func (a *Array) writeGeoTags(d *tiff.Directory) {
	gt, gotGT := a.guessGeoTransform()
	if gotGT {
		if gt[5] < 0 {
			d.SetDouble(tiff.TagGeoPixelScale, gt[1], -gt[5], 0)
			d.SetDouble(tiff.TagGeoTiePoints, 0, 0, 0, gt[0], gt[3], 0)
		} else {
			var m [16]float64
			m[0] = gt[1]
			m[1] = gt[2]
			m[3] = gt[0]
			m[4] = gt[4]
			m[5] = gt[5]
			m[7] = gt[3]
			m[15] = 1
			d.SetDouble(tiff.TagGeoTransMatrix, m[:]...)
		}
	}

	if !gotGT && a.srs == nil {
		return
	}

	type geoKey struct {
		id, loc, count, value uint16
	}
	keys := []geoKey{{geoKeyRasterType, 0, 1, geoRasterPixelIsPoint}}
	ascii := ""
	if a.srs != nil {
		model := uint16(geoModelProjected)
		if a.srs.geographic {
			model = geoModelGeographic
		}
		keys = append(keys, geoKey{geoKeyModelType, 0, 1, model})
		if a.srs.wkt != "" {
			ascii = a.srs.wkt + "|"
			keys = append(keys, geoKey{geoKeyCitation, tiff.TagGeoASCIIParams, uint16(len(ascii)), 0})
		}
		if a.srs.epsg > 0 {
			id := uint16(geoKeyProjectedCS)
			if a.srs.geographic {
				id = geoKeyGeographicType
			}
			keys = append(keys, geoKey{id, 0, 1, uint16(a.srs.epsg)})
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].id < keys[j].id })

	shorts := make([]uint16, 0, 4+4*len(keys))
	shorts = append(shorts, 1, 1, 0, uint16(len(keys)))
	for _, k := range keys {
		shorts = append(shorts, k.id, k.loc, k.count, k.value)
	}
	d.SetShort(tiff.TagGeoKeyDirectory, shorts...)
	if ascii != "" {
		d.SetASCII(tiff.TagGeoASCIIParams, ascii)
	}
}

// geoInfo is the georeference recovered from one directory.
type geoInfo struct {
	hasGT bool
	gt    [6]float64
	srs   *SpatialRef
}

// readGeoInfo recovers the geotransform and CRS from a directory. Transforms
// with rotation or shearing terms are ignored. Files written with the area
// raster convention get their origin shifted to the first sample center.
func readGeoInfo(dir *tiff.Dir) *geoInfo {
	g := &geoInfo{}

	scale, _ := dir.Doubles(tiff.TagGeoPixelScale)
	if len(scale) >= 2 && scale[0] != 0 && scale[1] != 0 {
		tie, _ := dir.Doubles(tiff.TagGeoTiePoints)
		if len(tie) >= 6 {
			g.gt[0] = tie[3]
			g.gt[1] = scale[0]
			g.gt[3] = tie[4]
			g.gt[5] = -scale[1]
			g.hasGT = true
		}
	} else {
		m, _ := dir.Doubles(tiff.TagGeoTransMatrix)
		if len(m) == 16 && m[1] == 0 && m[4] == 0 {
			g.gt[0] = m[3]
			g.gt[1] = m[0]
			g.gt[3] = m[7]
			g.gt[5] = m[5]
			g.hasGT = true
		}
	}

	keys, _ := dir.Shorts(tiff.TagGeoKeyDirectory)
	ascii, _ := dir.ASCII(tiff.TagGeoASCIIParams)

	rasterType := -1
	model := -1
	epsg := 0
	wkt := ""
	for i := 4; i+3 < len(keys); i += 4 {
		id, loc, count, value := keys[i], keys[i+1], keys[i+2], keys[i+3]
		switch id {
		case geoKeyRasterType:
			rasterType = int(value)
		case geoKeyModelType:
			model = int(value)
		case geoKeyCitation:
			if loc == tiff.TagGeoASCIIParams && int(value) < len(ascii) {
				end := int(value) + int(count)
				if end > len(ascii) {
					end = len(ascii)
				}
				wkt = strings.TrimSuffix(ascii[value:end], "|")
			}
		case geoKeyGeographicType, geoKeyProjectedCS:
			epsg = int(value)
		}
	}

	if model >= 0 || epsg > 0 || wkt != "" {
		g.srs = &SpatialRef{
			wkt:        wkt,
			epsg:       epsg,
			geographic: model == geoModelGeographic,
		}
	}

	if g.hasGT && rasterType >= 0 && rasterType != geoRasterPixelIsPoint {
		g.gt[0] += g.gt[1] / 2
		g.gt[3] += g.gt[5] / 2
	}

	return g
}

// GeoTransform returns the derived affine transform in the usual
// area-convention form (origin at the outer corner of the first sample), or
// false when the trailing indexing variables are not regularly spaced.
func (a *Array) GeoTransform() ([6]float64, bool) {
	gt, ok := a.guessGeoTransform()
	if !ok {
		return gt, false
	}
	gt[0] -= gt[1] / 2
	gt[3] -= gt[5] / 2
	return gt, true
}
