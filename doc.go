// Package mdtiff stores N-dimensional typed arrays in tiled TIFF containers.
//
// An array with two or more dimensions is laid out as a chain of tiled 2D
// planes, one directory per combination of leading dimension indices. The
// dimension schema, indexing variables and attributes are serialized into a
// metadata record of each directory, so any TIFF reader can still open the
// file as a stack of plain rasters.
//
// Datasets are created against a blobstore.Store:
//
//	ds, err := mdtiff.Create(blobstore.NewLocalStore(dir), "temperature.tif")
//	...
//	g, _ := ds.RootGroup()
//	t, _ := g.CreateDimension("time", "", "", 10)
//	y, _ := g.CreateDimension("Y", "HORIZONTAL_Y", "NORTH", 256)
//	x, _ := g.CreateDimension("X", "HORIZONTAL_X", "EAST", 512)
//	a, _ := g.CreateArray("temperature", []*mdtiff.Dimension{t, y, x}, mdtiff.Float32)
//
// The schema stays mutable until the first pixel access or Close crystalizes
// the directory structure. Reopened datasets are read-only.
package mdtiff
