// Package model defines the record shapes exchanged between the label
// extraction adapter, the verification engine, and its callers.
package model

// BeverageType identifies the regulatory category of the product.
type BeverageType string

const (
	BeverageWine             BeverageType = "wine"
	BeverageBeer             BeverageType = "beer"
	BeverageDistilledSpirits BeverageType = "distilled_spirits"
)

// Valid reports whether the beverage type is one of the known categories.
func (b BeverageType) Valid() bool {
	switch b {
	case BeverageWine, BeverageBeer, BeverageDistilledSpirits:
		return true
	}
	return false
}

// ApplicationData is the declared truth for one COLA application.
// The engine never mutates it.
type ApplicationData struct {
	BrandName       string       `json:"brand_name"`
	FancifulName    string       `json:"fanciful_name,omitempty"`
	ClassType       string       `json:"class_type"`
	BeverageType    BeverageType `json:"beverage_type"`
	AlcoholContent  string       `json:"alcohol_content"`
	Proof           string       `json:"proof,omitempty"`
	NetContents     string       `json:"net_contents"`
	ProducerName    string       `json:"producer_name"`
	ProducerAddress string       `json:"producer_address"`
	CountryOfOrigin string       `json:"country_of_origin,omitempty"`

	// Wine-specific.
	VintageYear      string `json:"vintage_year,omitempty"`
	Appellation      string `json:"appellation,omitempty"`
	ContainsSulfites bool   `json:"contains_sulfites,omitempty"`

	// Spirits-specific.
	AgeStatement string `json:"age_statement,omitempty"`
}
