package services

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/joshua-takyi/studenthub/internal/helpers"
	"github.com/joshua-takyi/studenthub/internal/models"
)

// fanOutLimit bounds the per-row lookups a single request runs in parallel.
const fanOutLimit = 8

type LodgingService struct {
	store  models.Store
	writer models.LodgingWriter
	images models.ImageRemover
	views  models.LodgingViewsRepo
	logger *slog.Logger
}

// NewLodgingService wires the lodging operations. views may be nil, in which
// case views are not recorded and stats are unavailable.
func NewLodgingService(store models.Store, writer models.LodgingWriter, images models.ImageRemover, views models.LodgingViewsRepo, logger *slog.Logger) *LodgingService {
	return &LodgingService{
		store:  store,
		writer: writer,
		images: images,
		views:  views,
		logger: logger,
	}
}

// Nearby returns every lodging within radiusKm of the point, each with its
// images and its owner's username and profile picture.
func (ls *LodgingService) Nearby(ctx context.Context, lat, lon, radiusKm float64) ([]models.LodgingDetails, error) {
	if radiusKm < 0 {
		return nil, Validation("radius must not be negative")
	}

	var all []models.Lodging
	if err := ls.store.Select(ctx, models.Query{
		Table:   models.LodgingTable,
		Columns: "id,name,brief_description,latitud,longitud,user_id",
		OrderBy: "id",
	}, &all); err != nil {
		return nil, Upstream("Error fetching lodgings", err)
	}

	var nearby []models.Lodging
	for _, l := range all {
		if helpers.DistanceKm(lat, lon, l.Latitud, l.Longitud) <= radiusKm {
			nearby = append(nearby, l)
		}
	}
	if len(nearby) == 0 {
		return nil, NotFound("Lodgement not found")
	}

	out := make([]models.LodgingDetails, len(nearby))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for i, l := range nearby {
		i, l := i, l
		g.Go(func() error {
			details, err := ls.details(gctx, l)
			if err != nil {
				return err
			}
			out[i] = details
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Upstream("Error fetching lodgings", err)
	}
	return out, nil
}

func (ls *LodgingService) details(ctx context.Context, l models.Lodging) (models.LodgingDetails, error) {
	d := models.LodgingDetails{Lodging: l, Images: []string{}}

	images, err := lodgingImages(ctx, ls.store, []int64{l.ID})
	if err != nil {
		return d, err
	}
	if srcs, ok := images[l.ID]; ok {
		d.Images = srcs
	}

	profiles, err := userProfiles(ctx, ls.store, []int64{l.UserID})
	if err != nil {
		return d, err
	}
	if p, ok := profiles[l.UserID]; ok {
		username := p.Username
		d.Username = &username
		d.ProfilePicture = p.Picture
	}
	return d, nil
}

// ViewContext identifies who is looking at a lodging.
type ViewContext struct {
	SessionID string
	UserAgent string
	UserID    *int64
}

// Get returns the lodging and records a view of it.
func (ls *LodgingService) Get(ctx context.Context, id int64, viewer ViewContext) ([]models.Lodging, error) {
	var rows []models.Lodging
	if err := ls.store.Select(ctx, models.Query{
		Table:   models.LodgingTable,
		Columns: "*",
		Filters: []models.Filter{models.Eq("id", id)},
	}, &rows); err != nil {
		return nil, Upstream("Error getting a lodge", err)
	}
	if len(rows) == 0 {
		return nil, NotFound("Lodgement not found")
	}

	ls.recordView(ctx, rows[0], viewer)
	return rows, nil
}

func (ls *LodgingService) recordView(ctx context.Context, l models.Lodging, viewer ViewContext) {
	if ls.views == nil || viewer.SessionID == "" {
		return
	}
	// the owner looking at their own listing is not a view
	if viewer.UserID != nil && *viewer.UserID == l.UserID {
		return
	}
	err := ls.views.TrackLodgingView(ctx, &models.LodgingView{
		LodgingID: l.ID,
		OwnerID:   l.UserID,
		UserID:    viewer.UserID,
		SessionID: viewer.SessionID,
		UserAgent: viewer.UserAgent,
	})
	if err != nil {
		ls.logger.WarnContext(ctx, "failed to record lodging view", "lodging_id", l.ID, "error", err)
	}
}

// Store creates the lodging with its images for the user and returns its id.
func (ls *LodgingService) Store(ctx context.Context, userID int64, req models.StoreLodgingRequest) (int64, error) {
	if err := models.Validate.Struct(req); err != nil {
		return 0, Validation("Some field is missing!")
	}

	lodging := &models.Lodging{
		Name:             req.Title,
		BriefDescription: req.BriefDescription,
		LongDescription:  req.Value,
		Latitud:          *req.Latitude,
		Longitud:         *req.Longitude,
		UserID:           userID,
	}
	urls := Pluck(req.FileList, func(f models.LodgingFile) string { return f.URL })

	id, err := ls.writer.CreateLodging(ctx, lodging, urls)
	if err != nil {
		return 0, Upstream("Error registering a lodge", err)
	}
	return id, nil
}

// Delete removes a lodging owned by the caller, or any lodging for an admin,
// then deletes its stored image objects.
func (ls *LodgingService) Delete(ctx context.Context, caller *helpers.SessionClaims, id int64) error {
	if err := ls.authorize(ctx, caller, id, "You are not authorized to delete this lodge"); err != nil {
		return err
	}

	urls, err := ls.writer.DeleteLodging(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return NotFound("Lodgement not found")
		}
		return Upstream("Error deleting the lodge", err)
	}

	if len(urls) > 0 && ls.images != nil {
		if err := ls.images.RemoveImages(ctx, models.LodgingBucket, urls); err != nil {
			ls.logger.WarnContext(ctx, "failed to remove lodging images from storage",
				"lodging_id", id, "count", len(urls), "error", err)
		}
	}
	return nil
}

// Stats returns view statistics for a lodging the caller may manage.
func (ls *LodgingService) Stats(ctx context.Context, caller *helpers.SessionClaims, id int64) (*models.LodgingViewStats, error) {
	if ls.views == nil {
		return nil, NotFound("View statistics are not available")
	}
	if err := ls.authorize(ctx, caller, id, "You are not authorized to view these statistics"); err != nil {
		return nil, err
	}

	stats, err := ls.views.GetLodgingViewStats(ctx, id)
	if err != nil {
		return nil, Upstream("Error fetching view statistics", err)
	}
	return stats, nil
}

// OwnerStats aggregates view statistics over every lodging of the caller.
func (ls *LodgingService) OwnerStats(ctx context.Context, caller *helpers.SessionClaims) (*models.OwnerViewStats, error) {
	if ls.views == nil {
		return nil, NotFound("View statistics are not available")
	}
	stats, err := ls.views.GetOwnerViewStats(ctx, caller.ID)
	if err != nil {
		return nil, Upstream("Error fetching view statistics", err)
	}
	return stats, nil
}

func (ls *LodgingService) authorize(ctx context.Context, caller *helpers.SessionClaims, id int64, denied string) error {
	if caller == nil {
		return Unauthorized("Unauthorized")
	}
	lodging, err := models.SelectOne[models.Lodging](ctx, ls.store, models.Query{
		Table:   models.LodgingTable,
		Columns: "id,user_id",
		Filters: []models.Filter{models.Eq("id", id)},
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return NotFound("Lodgement not found")
		}
		return Upstream("Error getting the lodge", err)
	}
	if !caller.CanManage(lodging.UserID) {
		return Unauthorized(denied)
	}
	return nil
}
