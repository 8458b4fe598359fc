// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

/*
Package img provides read, extract, pack, and edit operations for the
sector-aligned IMG archives used by 3D-era GTA titles. Two layouts exist:

  - V1: a .dir index of 32-byte records next to a .img data stream;
  - V2: one .img stream starting with "VER2", an entry count, and a
    fixed table of 32-byte slots, followed by payload.

Every offset and length is a count of 2048-byte sectors, and Entry always
stores sectors. Entry names occupy a 24-byte NUL-terminated Latin-1 field.

The package never opens files. Callers pass io.ReadSeeker sources and
io.WriteSeeker sinks and keep ownership of them.

# Reading

Open a V1 archive from its two streams and read an entry:

	dir, err := os.Open("gta3.dir")
	if err != nil {
	    return err
	}
	defer dir.Close()
	data, err := os.Open("gta3.img")
	if err != nil {
	    return err
	}
	defer data.Close()

	a, err := img.OpenV1(dir, data)
	if err != nil {
	    return err
	}
	for i, e := range a.All() {
	    r, _ := a.Open(i)
	    _, _ = e, r
	}

V2 archives need only the data stream; DetectVersion tells layouts apart:

	v, err := img.DetectVersion(data)
	if err != nil {
	    return err
	}
	a, err := img.Open(v, data, dir, img.ReaderOptions{})

Entry readers seek before every read and share the archive's source under a
lock, so many readers may be consumed in any interleaving. A reader returns
io.EOF once Length*SectorSize bytes are produced, padding included.

# Extracting

	err := a.Extract(ctx, "out", img.ExtractOptions{
	    Rules: []pathrules.Rule{
	        {Action: pathrules.ActionInclude, Pattern: "*.dff"},
	    },
	    MaxWorkers: 4,
	})

Output names are sanitized and made unique unless RawNames is set.

# Writing

Writers append one entry per call, padding each payload to a sector boundary:

	w, err := img.NewV2Writer(out, 2, img.WriterOptions{})
	if err != nil {
	    return err
	}
	if _, err := w.Write("VIRGO.DFF", bytes.NewReader(virgo)); err != nil {
	    return err
	}

V2 writers reserve the whole entry table up front and fail with
ErrInsufficientCapacity once every slot is used. Names are encoded lossily
by default; NamePolicyStrict rejects names that do not fit.

PackV1 and PackV2 write a list of inputs in one call:

	res, err := img.PackV2(ctx, out, []img.Input{
	    {Name: "VIRGO.DFF", Open: openVirgo},
	}, img.PackOptions{})

# Editing

Editor stages additions, replacements, and deletions against an opened
archive and rebuilds it into a new sink:

	ed, err := img.NewEditor(a, img.EditOptions{})
	if err != nil {
	    return err
	}
	_ = ed.Delete("LANDSTAL.DFF")
	_ = ed.Replace(img.Input{Name: "VIRGO.DFF", Open: openVirgo})
	res, err := ed.CommitVersion(ctx, img.VersionV2, out, nil)
*/
package img
