package models

import "context"

const (
	LodgingTable      = "hospedaje"
	LodgingImageTable = "hospedaje_images"
	LodgingBucket     = "lodgment_images"
)

type Lodging struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	BriefDescription string  `json:"brief_description"`
	LongDescription  string  `json:"long_description,omitempty"`
	Latitud          float64 `json:"latitud"`
	Longitud         float64 `json:"longitud"`
	UserID           int64   `json:"user_id"`
}

type LodgingImage struct {
	LodgingID int64 `json:"hospedaje_id"`
	ImageID   int64 `json:"image_id"`
}

// LodgingDetails is a lodging with its images and owner attached.
type LodgingDetails struct {
	Lodging
	Images         []string `json:"images"`
	Username       *string  `json:"username"`
	ProfilePicture *string  `json:"profile_picture"`
}

type LodgingFile struct {
	URL string `json:"url" validate:"required,url"`
}

type StoreLodgingRequest struct {
	Title            string        `json:"title" validate:"required"`
	BriefDescription string        `json:"briefDescription" validate:"required"`
	Value            string        `json:"value" validate:"required"`
	Latitude         *float64      `json:"latitude" validate:"required,latitude"`
	Longitude        *float64      `json:"longitude" validate:"required,longitude"`
	FileList         []LodgingFile `json:"fileList" validate:"required,min=1,dive"`
}

// LodgingWriter performs the multi-row lodging writes atomically.
type LodgingWriter interface {
	// CreateLodging stores the lodging, one image row per URL and the links between them.
	CreateLodging(ctx context.Context, lodging *Lodging, imageURLs []string) (int64, error)
	// DeleteLodging removes the lodging, its links and its image rows and returns the image URLs.
	DeleteLodging(ctx context.Context, lodgingID int64) ([]string, error)
}

// ImageRemover deletes stored objects behind public URLs.
type ImageRemover interface {
	RemoveImages(ctx context.Context, bucket string, urls []string) error
}
