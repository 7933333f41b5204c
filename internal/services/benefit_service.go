package services

import (
	"context"
	"errors"

	"github.com/joshua-takyi/studenthub/internal/models"
)

type BenefitService struct {
	store models.Store
}

func NewBenefitService(store models.Store) *BenefitService {
	return &BenefitService{store: store}
}

// ListBenefits returns every benefit linked to the university with its images.
func (bs *BenefitService) ListBenefits(ctx context.Context, universityID int64) ([]models.BenefitWithImages, error) {
	ids, err := linkedBenefitIDs(ctx, bs.store, models.UniversityBenefitTable, universityID)
	if err != nil {
		return nil, Upstream("Error fetching benefits", err)
	}

	var benefits []models.Benefit
	if err := bs.store.Select(ctx, models.Query{
		Table:   models.BenefitTable,
		Columns: "id,name",
		Filters: []models.Filter{models.In("id", ids)},
	}, &benefits); err != nil {
		return nil, Upstream("Error fetching benefits", err)
	}
	if len(benefits) == 0 {
		return nil, NotFound("Benefits not found")
	}

	out, err := attachBenefitImages(ctx, bs.store, benefits)
	if err != nil {
		return nil, Upstream("Error fetching benefits", err)
	}
	return out, nil
}

// ListCategories returns the distinct categories of the university's benefits with their icons.
func (bs *BenefitService) ListCategories(ctx context.Context, universityID int64) ([]models.CategoryWithIcon, error) {
	ids, err := linkedBenefitIDs(ctx, bs.store, models.UniversityBenefitTable, universityID)
	if err != nil {
		return nil, Upstream("Error fetching categories", err)
	}

	var benefits []models.Benefit
	if err := bs.store.Select(ctx, models.Query{
		Table:   models.BenefitTable,
		Columns: "id,category_id",
		Filters: []models.Filter{models.In("id", ids)},
	}, &benefits); err != nil {
		return nil, Upstream("Error fetching categories", err)
	}

	var categoryIDs []int64
	for _, b := range benefits {
		if b.CategoryID != nil {
			categoryIDs = append(categoryIDs, *b.CategoryID)
		}
	}

	var categories []models.Category
	if err := bs.store.Select(ctx, models.Query{
		Table:   models.CategoryTable,
		Columns: "id,name,icon",
		Filters: []models.Filter{models.In("id", Unique(categoryIDs))},
	}, &categories); err != nil {
		return nil, Upstream("Error fetching categories", err)
	}
	if len(categories) == 0 {
		return nil, NotFound("Categories not found")
	}

	var iconIDs []int64
	for _, c := range categories {
		if c.Icon != nil {
			iconIDs = append(iconIDs, *c.Icon)
		}
	}
	icons, err := imageSources(ctx, bs.store, iconIDs)
	if err != nil {
		return nil, Upstream("Error fetching categories", err)
	}

	out := make([]models.CategoryWithIcon, 0, len(categories))
	for _, c := range categories {
		entry := models.CategoryWithIcon{Name: c.Name}
		if c.Icon != nil {
			if src, ok := icons[*c.Icon]; ok {
				entry.Base64Image = &src
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// FeaturedImages returns the image payloads of the university's featured benefits.
func (bs *BenefitService) FeaturedImages(ctx context.Context, universityID int64) ([]string, error) {
	ids, err := linkedBenefitIDs(ctx, bs.store, models.FeaturedBenefitTable, universityID)
	if err != nil {
		return nil, Upstream("Error fetching featured images", err)
	}

	var links []models.ImageBenefit
	if err := bs.store.Select(ctx, models.Query{
		Table:   models.ImageBenefitTable,
		Columns: "benefit_id,image_id",
		Filters: []models.Filter{models.In("benefit_id", ids)},
	}, &links); err != nil {
		return nil, Upstream("Error fetching featured images", err)
	}

	var images []models.Image
	if err := bs.store.Select(ctx, models.Query{
		Table:   models.ImageTable,
		Columns: "id,base64image",
		Filters: []models.Filter{models.In("id", Unique(Pluck(links, func(l models.ImageBenefit) int64 { return l.ImageID })))},
	}, &images); err != nil {
		return nil, Upstream("Error fetching featured images", err)
	}
	if len(images) == 0 {
		return nil, NotFound("Featured images not found")
	}

	return Pluck(images, func(i models.Image) string { return i.Base64Image }), nil
}

// BenefitsByCategory returns the university's benefits in the named category.
func (bs *BenefitService) BenefitsByCategory(ctx context.Context, universityID int64, category string) ([]models.BenefitWithImages, error) {
	cat, err := models.SelectOne[models.Category](ctx, bs.store, models.Query{
		Table:   models.CategoryTable,
		Columns: "id,name",
		Filters: []models.Filter{models.Eq("name", category)},
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, NotFound("Category not found")
		}
		return nil, Upstream("Error fetching benefits", err)
	}

	ids, err := linkedBenefitIDs(ctx, bs.store, models.UniversityBenefitTable, universityID)
	if err != nil {
		return nil, Upstream("Error fetching benefits", err)
	}

	var benefits []models.Benefit
	if err := bs.store.Select(ctx, models.Query{
		Table:   models.BenefitTable,
		Columns: "id,name",
		Filters: []models.Filter{models.In("id", ids), models.Eq("category_id", cat.ID)},
	}, &benefits); err != nil {
		return nil, Upstream("Error fetching benefits", err)
	}
	if len(benefits) == 0 {
		return nil, NotFound("Benefits not found")
	}

	out, err := attachBenefitImages(ctx, bs.store, benefits)
	if err != nil {
		return nil, Upstream("Error fetching benefits", err)
	}
	return out, nil
}

func linkedBenefitIDs(ctx context.Context, store models.Store, table string, universityID int64) ([]int64, error) {
	var links []models.BenefitLink
	if err := store.Select(ctx, models.Query{
		Table:   table,
		Columns: "benefit_id",
		Filters: []models.Filter{models.Eq("university_id", universityID)},
	}, &links); err != nil {
		return nil, err
	}
	return Unique(Pluck(links, func(l models.BenefitLink) int64 { return l.BenefitID })), nil
}

func attachBenefitImages(ctx context.Context, store models.Store, benefits []models.Benefit) ([]models.BenefitWithImages, error) {
	var links []models.ImageBenefit
	if err := store.Select(ctx, models.Query{
		Table:   models.ImageBenefitTable,
		Columns: "benefit_id,image_id",
		Filters: []models.Filter{models.In("benefit_id", Pluck(benefits, func(b models.Benefit) int64 { return b.ID }))},
	}, &links); err != nil {
		return nil, err
	}

	images, err := imageSources(ctx, store, Pluck(links, func(l models.ImageBenefit) int64 { return l.ImageID }))
	if err != nil {
		return nil, err
	}

	byBenefit := GroupBy(links, func(l models.ImageBenefit) int64 { return l.BenefitID })
	out := make([]models.BenefitWithImages, 0, len(benefits))
	for _, b := range benefits {
		srcs := []string{}
		for _, l := range byBenefit[b.ID] {
			if src, ok := images[l.ImageID]; ok {
				srcs = append(srcs, src)
			}
		}
		out = append(out, models.BenefitWithImages{ID: b.ID, Name: b.Name, Images: srcs})
	}
	return out, nil
}

// imageSources resolves image ids to their stored payload or URL.
func imageSources(ctx context.Context, store models.Store, ids []int64) (map[int64]string, error) {
	var images []models.Image
	if err := store.Select(ctx, models.Query{
		Table:   models.ImageTable,
		Columns: "id,base64image",
		Filters: []models.Filter{models.In("id", Unique(ids))},
	}, &images); err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(images))
	for _, img := range images {
		out[img.ID] = img.Base64Image
	}
	return out, nil
}
