package models

// Location is one (region, city, district) row of the location directory.
type Location struct {
	Region   string `json:"region"`
	City     string `json:"city"`
	District string `json:"district"`
}

func (l Location) String() string {
	return l.District + ", " + l.City + ", " + l.Region
}
