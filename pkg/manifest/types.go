package manifest

// Version is the manifest format version written to every manifest
const Version = 1

// Mode selects how source images become published assets
type Mode string

// Mode constants
const (
	ModePassThrough Mode = "passthrough"
	ModeTranscode   Mode = "transcode"
)

// Manifest is the top-level document consumed by the static site
type Manifest struct {
	Version     int     `json:"version"`
	GeneratedAt string  `json:"generatedAt"`
	Commit      *string `json:"commit"`
	BaseURL     string  `json:"baseUrl"`
	Groups      []Group `json:"groups"`
}

// Group is one subdirectory of the input root
type Group struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BaseURL string `json:"baseUrl"`
	Link    string `json:"link,omitempty"`
	Count   int    `json:"count"`
	Items   []Item `json:"items"`
}

// Item is one eligible image inside a group.
// Width, Height, Bytes and SHA256 are only set in transcode mode.
type Item struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Thumb    string `json:"thumb,omitempty"`
	Width    *int   `json:"w,omitempty"`
	Height   *int   `json:"h,omitempty"`
	Bytes    int64  `json:"bytes,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
}

// Meta holds the top-level fields wrapped around the groups
type Meta struct {
	GeneratedAt string
	Revision    string
	BaseURL     string
}
