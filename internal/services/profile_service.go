package services

import (
	"context"
	"errors"

	"github.com/joshua-takyi/studenthub/internal/models"
)

// ProfileService answers questions about one user and what they own.
type ProfileService struct {
	store models.Store
}

func NewProfileService(store models.Store) *ProfileService {
	return &ProfileService{store: store}
}

type UsernameRow struct {
	Username string `json:"username"`
}

// Username returns the username as a one-element list, or an empty list for unknown users.
func (ps *ProfileService) Username(ctx context.Context, userID int64) ([]UsernameRow, error) {
	var rows []UsernameRow
	if err := ps.store.Select(ctx, models.Query{
		Table:   models.AppUserTable,
		Columns: "username",
		Filters: []models.Filter{models.Eq("user_id", userID)},
	}, &rows); err != nil {
		return nil, Upstream("Error getting the username", err)
	}
	if rows == nil {
		rows = []UsernameRow{}
	}
	return rows, nil
}

// UserInfo returns the user with its profile picture and every mail with its university name.
func (ps *ProfileService) UserInfo(ctx context.Context, userID int64) (*models.UserInfo, error) {
	user, err := models.SelectOne[models.AppUser](ctx, ps.store, models.Query{
		Table:   models.AppUserTable,
		Columns: "user_id,username,is_admin,profile_picture",
		Filters: []models.Filter{models.Eq("user_id", userID)},
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, NotFound("User not found")
		}
		return nil, Upstream("Error getting the user", err)
	}

	info := &models.UserInfo{
		UserID:   user.UserID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		Mails:    []models.UserMail{},
	}
	if user.ProfilePicture != nil {
		pictures, err := imageSources(ctx, ps.store, []int64{*user.ProfilePicture})
		if err != nil {
			return nil, Upstream("Error getting the user", err)
		}
		if src, ok := pictures[*user.ProfilePicture]; ok {
			info.ProfilePicture = &src
		}
	}

	var mails []models.Mail
	if err := ps.store.Select(ctx, models.Query{
		Table:   models.MailTable,
		Columns: "Mail,university_id,is_primary,is_verified",
		Filters: []models.Filter{models.Eq("user_id", userID)},
		OrderBy: "is_primary",
		Desc:    true,
	}, &mails); err != nil {
		return nil, Upstream("Error getting the user", err)
	}

	names, err := universityNames(ctx, ps.store, Pluck(mails, func(m models.Mail) int64 { return m.UniversityID }))
	if err != nil {
		return nil, Upstream("Error getting the user", err)
	}
	for _, m := range mails {
		info.Mails = append(info.Mails, models.UserMail{
			Mail:           m.Mail,
			UniversityID:   m.UniversityID,
			UniversityName: names[m.UniversityID],
			IsPrimary:      m.IsPrimary,
			IsVerified:     m.IsVerified,
		})
	}
	return info, nil
}

// IsAdmin reads the admin flag from the database rather than from the session.
func (ps *ProfileService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	user, err := models.SelectOne[models.AppUser](ctx, ps.store, models.Query{
		Table:   models.AppUserTable,
		Columns: "is_admin",
		Filters: []models.Filter{models.Eq("user_id", userID)},
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, Upstream("Error getting the user", err)
	}
	return user.IsAdmin, nil
}

// UserLodgings lists the user's lodgings with their images.
func (ps *ProfileService) UserLodgings(ctx context.Context, userID int64) ([]models.LodgingDetails, error) {
	var lodgings []models.Lodging
	if err := ps.store.Select(ctx, models.Query{
		Table:   models.LodgingTable,
		Columns: "id,name,brief_description,long_description,latitud,longitud,user_id",
		Filters: []models.Filter{models.Eq("user_id", userID)},
		OrderBy: "id",
	}, &lodgings); err != nil {
		return nil, Upstream("Error getting the lodgments", err)
	}
	if len(lodgings) == 0 {
		return nil, NotFound("Lodgments not found")
	}

	images, err := lodgingImages(ctx, ps.store, Pluck(lodgings, func(l models.Lodging) int64 { return l.ID }))
	if err != nil {
		return nil, Upstream("Error getting the lodgments", err)
	}

	out := make([]models.LodgingDetails, 0, len(lodgings))
	for _, l := range lodgings {
		srcs := images[l.ID]
		if srcs == nil {
			srcs = []string{}
		}
		out = append(out, models.LodgingDetails{Lodging: l, Images: srcs})
	}
	return out, nil
}

// UserUniversities lists the universities the user holds a verified mail at.
func (ps *ProfileService) UserUniversities(ctx context.Context, userID int64) ([]models.University, error) {
	var mails []models.Mail
	if err := ps.store.Select(ctx, models.Query{
		Table:   models.MailTable,
		Columns: "university_id",
		Filters: []models.Filter{models.Eq("user_id", userID), models.Eq("is_verified", true)},
	}, &mails); err != nil {
		return nil, Upstream("Error getting the universities", err)
	}

	var universities []models.University
	if err := ps.store.Select(ctx, models.Query{
		Table:   models.UniversityTable,
		Columns: "university_id,name",
		Filters: []models.Filter{models.In("university_id", Unique(Pluck(mails, func(m models.Mail) int64 { return m.UniversityID })))},
		OrderBy: "university_id",
	}, &universities); err != nil {
		return nil, Upstream("Error getting the universities", err)
	}
	if len(universities) == 0 {
		return nil, NotFound("No universities found")
	}
	return universities, nil
}

func universityNames(ctx context.Context, store models.Store, ids []int64) (map[int64]string, error) {
	var rows []models.University
	if err := store.Select(ctx, models.Query{
		Table:   models.UniversityTable,
		Columns: "university_id,name",
		Filters: []models.Filter{models.In("university_id", Unique(ids))},
	}, &rows); err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(rows))
	for _, r := range rows {
		out[r.UniversityID] = r.Name
	}
	return out, nil
}

// lodgingImages resolves lodging ids to their image sources in link order.
func lodgingImages(ctx context.Context, store models.Store, lodgingIDs []int64) (map[int64][]string, error) {
	var links []models.LodgingImage
	if err := store.Select(ctx, models.Query{
		Table:   models.LodgingImageTable,
		Columns: "hospedaje_id,image_id",
		Filters: []models.Filter{models.In("hospedaje_id", Unique(lodgingIDs))},
	}, &links); err != nil {
		return nil, err
	}

	sources, err := imageSources(ctx, store, Pluck(links, func(l models.LodgingImage) int64 { return l.ImageID }))
	if err != nil {
		return nil, err
	}

	out := make(map[int64][]string, len(lodgingIDs))
	for _, l := range links {
		if src, ok := sources[l.ImageID]; ok {
			out[l.LodgingID] = append(out[l.LodgingID], src)
		}
	}
	return out, nil
}
