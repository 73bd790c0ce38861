package lang

// CatalogVersion identifies the revision of the builtin catalog. It changes
// whenever an identity or a parameter contract changes.
const CatalogVersion = 7

func req(name, desc string) Parameter { return Parameter{Name: name, Description: desc, Required: true} }
func opt(name, desc string) Parameter { return Parameter{Name: name, Description: desc} }

var spread = []Parameter{req(SpreadParam, "values, in order")}

const (
	imgDesc    = "image or list of images"
	angleDesc  = "rotation angle"
	bgDesc     = "fill value for uncovered pixels"
	kernelDesc = "kernel size in pixels"
)

// catalog is the closed set of builtin identities, in declaration order.
// Names are unique and upper case.
//
// Checks are expr-lang expressions over the named arguments; arguments the
// check cannot inspect (images, lists) are nil, so every check tolerates
// nil for the names it reads.
var catalog = []Builtin{
	{
		Name:        "ADJUST_CONTRAST",
		Description: "Clip pixel values to [lo, hi] and rescale",
		Params:      []Parameter{req("img", imgDesc), req("lo", "low clip value"), req("hi", "high clip value")},
		Check:       "lo == nil || hi == nil || lo < hi",
	},
	{
		Name:        "ADJUST_GAMMA",
		Description: "Apply gamma correction",
		Params:      []Parameter{req("img", imgDesc), req("gamma", "gamma exponent")},
		Check:       "gamma == nil || gamma > 0",
	},
	{
		Name:        "ANIM",
		Description: "Assemble images into an animation",
		Params:      []Parameter{req("images", "frames, in order"), opt("delay", "frame delay in milliseconds")},
		SideEffect:  true,
		Check:       "delay == nil || delay > 0",
	},
	{
		Name:        "ASINH_STRETCH",
		Description: "Inverse hyperbolic sine stretch",
		Params:      []Parameter{req("img", imgDesc), req("blackPoint", "value mapped to black"), req("stretch", "stretch factor")},
		Check:       "stretch == nil || stretch >= 0",
	},
	{
		Name:        "AUTOCROP",
		Description: "Crop to the solar disk",
		Params:      []Parameter{req("img", imgDesc)},
	},
	{
		Name:        "AUTOCROP2",
		Description: "Crop to a square around the solar disk",
		Params:      []Parameter{req("img", imgDesc), opt("factor", "diameter multiplier"), opt("rounding", "round size to a multiple of")},
		Check:       "(factor == nil || factor > 0) && (rounding == nil || rounding >= 1)",
	},
	{
		Name:        "AVG",
		Description: "Average of values or images",
		Params:      spread,
	},
	{
		Name:        "BG_MODEL",
		Description: "Model the sky background",
		Params:      []Parameter{req("img", imgDesc), opt("order", "polynomial order"), opt("sigma", "rejection threshold")},
		Check:       "order == nil || (order >= 1 && order <= 4)",
	},
	{
		Name:        "BLUR",
		Description: "Gaussian blur",
		Params:      []Parameter{req("img", imgDesc), opt("kernel", kernelDesc)},
		Check:       "kernel == nil || kernel >= 1",
	},
	{
		Name:        "CHOOSE_FILE",
		Description: "Ask for one file",
		Params:      []Parameter{req("id", "prompt identifier"), opt("title", "prompt title")},
		SideEffect:  true,
	},
	{
		Name:        "CHOOSE_FILES",
		Description: "Ask for several files",
		Params:      []Parameter{req("id", "prompt identifier"), opt("title", "prompt title")},
		SideEffect:  true,
	},
	{
		Name:        "CLAHE",
		Description: "Contrast limited adaptive histogram equalization",
		Params:      []Parameter{req("img", imgDesc), opt("tiles", "tile count"), opt("bins", "histogram bins"), opt("clip", "clip limit")},
		Check:       "(tiles == nil || tiles >= 1) && (bins == nil || bins >= 2) && (clip == nil || clip > 0)",
	},
	{
		Name:        "COLORIZE",
		Description: "Map a mono image to color by channel curves or a named profile",
		Params: []Parameter{
			req("img", imgDesc),
			opt("rIn", "red input level"), opt("rOut", "red output level"),
			opt("gIn", "green input level"), opt("gOut", "green output level"),
			opt("bIn", "blue input level"), opt("bOut", "blue output level"),
			opt("profile", "named color profile"),
		},
	},
	{
		Name:        "CONCAT",
		Description: "Concatenate lists",
		Params:      spread,
	},
	{
		Name:        "CROP",
		Description: "Crop a rectangle",
		Params: []Parameter{
			req("img", imgDesc), req("left", "left edge"), req("top", "top edge"),
			req("width", "width"), req("height", "height"),
		},
		Check: "(width == nil || width > 0) && (height == nil || height > 0) && (left == nil || left >= 0) && (top == nil || top >= 0)",
	},
	{
		Name:        "CROP_RECT",
		Description: "Crop a rectangle centered on the disk",
		Params:      []Parameter{req("img", imgDesc), req("width", "width"), req("height", "height")},
		Check:       "(width == nil || width > 0) && (height == nil || height > 0)",
	},
	{
		Name:        "DEDISTORT",
		Description: "Correct seeing distortion against a reference",
		Params: []Parameter{
			req("ref", "reference image"), opt("img", imgDesc),
			opt("tileSize", "tile size"), opt("sampling", "sampling ratio"), opt("threshold", "signal threshold"),
		},
		Check: "(tileSize == nil || tileSize >= 8) && (sampling == nil || (sampling > 0 && sampling <= 1))",
	},
	{
		Name:        "DISK_FILL",
		Description: "Fill the solar disk",
		Params:      []Parameter{req("img", imgDesc), opt("fill", "fill value")},
	},
	{
		Name:        "DRAW_GLOBE",
		Description: "Overlay heliographic grid",
		Params: []Parameter{
			req("img", imgDesc), opt("angleP", "position angle"), opt("b0", "heliographic latitude"),
			opt("ellipse", "disk ellipse"), opt("style", "grid style"),
		},
	},
	{
		Name:        "DRAW_SOLAR_PARAMS",
		Description: "Overlay solar parameters",
		Params:      []Parameter{req("img", imgDesc)},
	},
	{
		Name:        "DRAW_TEXT",
		Description: "Draw text",
		Params: []Parameter{
			req("img", imgDesc), req("x", "left"), req("y", "baseline"), req("text", "text"),
			opt("fontSize", "font size"), opt("color", "color"),
		},
		Check: "fontSize == nil || fontSize > 0",
	},
	{
		Name:        "ELLIPSE_FIT",
		Description: "Fit the solar limb",
		Params:      []Parameter{req("img", imgDesc)},
	},
	{
		Name:        "EXP",
		Description: "Exponentiate pixel values",
		Params:      []Parameter{req("img", imgDesc), req("exp", "exponent")},
	},
	{
		Name:        "FIND_SHIFT",
		Description: "Pixel shift of a wavelength or reference",
		Params:      []Parameter{req("img", "wavelength or image"), opt("ref", "reference wavelength")},
	},
	{
		Name:        "FIX_BANDING",
		Description: "Reduce transversalium banding",
		Params:      []Parameter{req("img", imgDesc), opt("bandSize", "band width"), opt("passes", "iterations")},
		Check:       "(bandSize == nil || bandSize >= 1) && (passes == nil || passes >= 1)",
	},
	{
		Name:        "FIX_GEOMETRY",
		Description: "Correct disk geometry",
		Params:      []Parameter{req("img", imgDesc)},
	},
	{
		Name:        "HFLIP",
		Description: "Flip horizontally",
		Params:      []Parameter{req("img", imgDesc)},
	},
	{
		Name:        "IMG",
		Description: "Reconstructed image at a pixel shift",
		Params:      []Parameter{req("ch", "pixel shift")},
	},
	{
		Name:        "INVERT",
		Description: "Invert pixel values",
		Params:      []Parameter{req("img", imgDesc)},
	},
	{
		Name:        "LINEAR_STRETCH",
		Description: "Linear stretch to the full range",
		Params:      []Parameter{req("img", imgDesc), opt("lo", "low input value"), opt("hi", "high input value")},
		Check:       "lo == nil || hi == nil || lo < hi",
	},
	{
		Name:        "LIST",
		Description: "Build a list",
		Params:      spread,
	},
	{
		Name:        "LOAD",
		Description: "Load an image file",
		Params:      []Parameter{req("file", "path")},
		SideEffect:  true,
	},
	{
		Name:        "LOAD_MANY",
		Description: "Load image files matching a pattern",
		Params:      []Parameter{req("pattern", "glob pattern")},
		SideEffect:  true,
	},
	{
		Name:        "LOG",
		Description: "Logarithmic stretch",
		Params:      []Parameter{req("img", imgDesc), opt("exp", "exponent")},
	},
	{
		Name:        "MAX",
		Description: "Maximum of values or images",
		Params:      spread,
	},
	{
		Name:        "MEDIAN",
		Description: "Median of values or images",
		Params:      spread,
	},
	{
		Name:        "MIN",
		Description: "Minimum of values or images",
		Params:      spread,
	},
	{
		Name:        "NEUTRALIZE_BG",
		Description: "Neutralize background color",
		Params:      []Parameter{req("img", imgDesc), opt("iterations", "iterations")},
		Check:       "iterations == nil || iterations >= 1",
	},
	{
		Name:        "POW",
		Description: "Raise pixel values to a power",
		Params:      []Parameter{req("img", imgDesc), req("exp", "exponent")},
	},
	{
		Name:        "RANGE",
		Description: "Numbers from start to end, inclusive",
		Params:      []Parameter{req("from", "start"), req("to", "end"), opt("step", "increment")},
		Check:       "step == nil || step != 0",
	},
	{
		Name:        "REMOVE_BG",
		Description: "Subtract the background",
		Params:      []Parameter{req("img", imgDesc), opt("tolerance", "tolerance")},
		Check:       "tolerance == nil || tolerance >= 0",
	},
	{
		Name:        "RESCALE_ABS",
		Description: "Resize to absolute dimensions",
		Params:      []Parameter{req("img", imgDesc), req("width", "width"), req("height", "height")},
		Check:       "(width == nil || width > 0) && (height == nil || height > 0)",
	},
	{
		Name:        "RESCALE_REL",
		Description: "Resize by factors",
		Params:      []Parameter{req("img", imgDesc), req("scaleX", "horizontal factor"), req("scaleY", "vertical factor")},
		Check:       "(scaleX == nil || scaleX > 0) && (scaleY == nil || scaleY > 0)",
	},
	{
		Name:        "RGB",
		Description: "Combine channels into a color image",
		Params:      []Parameter{req("r", "red"), req("g", "green"), req("b", "blue")},
	},
	{
		Name:        "ROTATE_DEG",
		Description: "Rotate by degrees",
		Params:      []Parameter{req("img", imgDesc), req("angle", angleDesc), opt("bg", bgDesc)},
	},
	{
		Name:        "ROTATE_LEFT",
		Description: "Rotate 90 degrees counterclockwise",
		Params:      []Parameter{req("img", imgDesc)},
	},
	{
		Name:        "ROTATE_RAD",
		Description: "Rotate by radians",
		Params:      []Parameter{req("img", imgDesc), req("angle", angleDesc), opt("bg", bgDesc)},
	},
	{
		Name:        "ROTATE_RIGHT",
		Description: "Rotate 90 degrees clockwise",
		Params:      []Parameter{req("img", imgDesc)},
	},
	{
		Name:        "SATURATE",
		Description: "Scale color saturation",
		Params:      []Parameter{req("img", imgDesc), req("factor", "saturation factor")},
		Check:       "factor == nil || factor >= 0",
	},
	{
		Name:        "SHARPEN",
		Description: "Unsharp mask",
		Params:      []Parameter{req("img", imgDesc), opt("kernel", kernelDesc)},
		Check:       "kernel == nil || kernel >= 1",
	},
	{
		Name:        "SORT",
		Description: "Sort images",
		Params:      []Parameter{req("images", "images"), opt("order", `"asc" or "desc"`)},
		Check:       `order == nil || order in ["asc", "desc"]`,
	},
	{
		Name:        "STACK",
		Description: "Align and stack images",
		Params: []Parameter{
			req("images", "images"), opt("tileSize", "tile size"),
			opt("sampling", "sampling ratio"), opt("select", "frame selection"),
		},
		Check: "(tileSize == nil || tileSize >= 8) && (sampling == nil || (sampling > 0 && sampling <= 1))",
	},
	{
		Name:        "VFLIP",
		Description: "Flip vertically",
		Params:      []Parameter{req("img", imgDesc)},
	},
	{
		Name:        "WORKDIR",
		Description: "Set the working directory for file operations",
		Params:      []Parameter{req("dir", "directory")},
		SideEffect:  true,
	},
}
