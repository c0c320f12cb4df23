package pdf

const (
	// UnitsPerInch is the resolution of default PDF user space (72 units per inch)
	UnitsPerInch = 72

	// ReferenceDPI is the resolution the image converter assumes: it maps 96 pixels onto 72 units
	ReferenceDPI = 96

	// DefaultDPI is the scan resolution assumed when none is given
	DefaultDPI = 300

	// DefaultReduction is the default integer downsampling factor (no downsampling)
	DefaultReduction = 1

	// DefaultJPEGQuality is the quality used when encoding page images as JPEG
	DefaultJPEGQuality = 75

	// ChainOutputName is the file chained scans are written to, overwritten on every run
	ChainOutputName = "n.pdf"

	// ReencodeOutputName is the file a JPEG re-encoded document is written to
	ReencodeOutputName = "jpeg.pdf"

	// ImageExt and DocumentExt are the extensions scan groups are matched with
	ImageExt    = ".jpg"
	DocumentExt = ".pdf"
)
