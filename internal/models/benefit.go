package models

const (
	BenefitTable           = "benefit"
	CategoryTable          = "category"
	UniversityBenefitTable = "universitybenefit"
	FeaturedBenefitTable   = "featured_benefits"
	ImageBenefitTable      = "imagebenefit"
)

type Benefit struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CategoryID *int64 `json:"category_id,omitempty"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Icon *int64 `json:"icon"`
}

// BenefitLink is a row of universitybenefit or featured_benefits.
type BenefitLink struct {
	UniversityID int64 `json:"university_id"`
	BenefitID    int64 `json:"benefit_id"`
}

type ImageBenefit struct {
	BenefitID int64 `json:"benefit_id"`
	ImageID   int64 `json:"image_id"`
}

// BenefitWithImages is the API shape of a benefit.
type BenefitWithImages struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Images []string `json:"images"`
}

type CategoryWithIcon struct {
	Name        string  `json:"name"`
	Base64Image *string `json:"base64image"`
}
