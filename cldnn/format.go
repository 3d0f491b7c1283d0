package cldnn

// Format identifies the in-memory layout of a tensor, i.e. the order and
// blocking of its batch (b), feature (f) and spatial (x, y, z) dimensions.
//
// FormatAny is the distinguished "no preference" value used by the layout
// optimizer when it has no opinion about a node. The image formats are opaque
// endpoints: nodes carrying them are never relabelled and never receive an
// inserted reorder.
type Format int

const (
	// FormatAny means no format preference is known.
	FormatAny Format = iota

	FormatBfyx
	FormatYxfb
	FormatByxf
	FormatBfzyx
	FormatBFsYxFsv4
	FormatBFsYxFsv16
	FormatBFsYxFsv32
	FormatBFsZyxFsv16
	FormatBFsZyxFsv32
	FormatBsFsZyxBsv16Fsv16
	FormatFsBYxFsv32
	FormatByxfAf32

	// Image family.
	FormatImage2DRgba
	FormatNV12
)

var formatNames = map[Format]string{
	FormatAny:               "any",
	FormatBfyx:              "bfyx",
	FormatYxfb:              "yxfb",
	FormatByxf:              "byxf",
	FormatBfzyx:             "bfzyx",
	FormatBFsYxFsv4:         "b_fs_yx_fsv4",
	FormatBFsYxFsv16:        "b_fs_yx_fsv16",
	FormatBFsYxFsv32:        "b_fs_yx_fsv32",
	FormatBFsZyxFsv16:       "b_fs_zyx_fsv16",
	FormatBFsZyxFsv32:       "b_fs_zyx_fsv32",
	FormatBsFsZyxBsv16Fsv16: "bs_fs_zyx_bsv16_fsv16",
	FormatFsBYxFsv32:        "fs_b_yx_fsv32",
	FormatByxfAf32:          "byxf_af32",
	FormatImage2DRgba:       "image_2d_rgba",
	FormatNV12:              "nv12",
}

// imageFormats is the table behind Format.IsImage.
var imageFormats = map[Format]bool{
	FormatImage2DRgba: true,
	FormatNV12:        true,
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "format(?)"
}

// IsImage reports whether f belongs to the image family.
func (f Format) IsImage() bool {
	return imageFormats[f]
}
