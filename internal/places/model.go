package places

// Category is the segment a place is listed under.
type Category string

const (
	CategoryCamping    Category = "camping"
	CategoryExperience Category = "experience"
	CategorySports     Category = "sports"
	CategoryGeneral    Category = "general"
)

// Source names the upstream provider a place was read from.
type Source string

const (
	SourceTourAPI   Source = "tourapi"
	SourceGoCamping Source = "gocamping"
)

// Place is the provider-neutral record returned by every /external endpoint.
// Optional fields are pointers so that absent values serialize as null.
type Place struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Address  *string  `json:"address"`
	Tel      *string  `json:"tel"`
	Image    *string  `json:"image"`
	Source   Source   `json:"source"`
	Link     *string  `json:"link"`
}
