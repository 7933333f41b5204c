package services

import (
	"context"
	"errors"
	"strings"

	"github.com/joshua-takyi/studenthub/internal/models"
)

type UniversityService struct {
	store models.Store
}

func NewUniversityService(store models.Store) *UniversityService {
	return &UniversityService{store: store}
}

func (us *UniversityService) Domains(ctx context.Context) ([]string, error) {
	var rows []models.University
	if err := us.store.Select(ctx, models.Query{
		Table:   models.UniversityTable,
		Columns: "domain",
	}, &rows); err != nil {
		return nil, Upstream("Error fetching domains", err)
	}

	domains := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Domain != "" {
			domains = append(domains, r.Domain)
		}
	}
	if len(domains) == 0 {
		return nil, NotFound("Domains not found")
	}
	return domains, nil
}

func (us *UniversityService) Coordinates(ctx context.Context, universityID int64) (*models.Coordinates, error) {
	u, err := models.SelectOne[models.University](ctx, us.store, models.Query{
		Table:   models.UniversityTable,
		Columns: "latitud,longitud",
		Filters: []models.Filter{models.Eq("university_id", universityID)},
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, NotFound("University not found")
		}
		return nil, Upstream("Error fetching coordinates", err)
	}
	return &models.Coordinates{Latitud: u.Latitud, Longitud: u.Longitud}, nil
}

// MyUniversity returns the university of the user's verified mail, preferring the primary one.
func (us *UniversityService) MyUniversity(ctx context.Context, userID int64) (int64, error) {
	mail, err := models.SelectOne[models.Mail](ctx, us.store, models.Query{
		Table:   models.MailTable,
		Columns: "university_id,is_primary",
		Filters: []models.Filter{models.Eq("user_id", userID), models.Eq("is_verified", true)},
		OrderBy: "is_primary",
		Desc:    true,
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return 0, NotFound("No verified university found")
		}
		return 0, Upstream("Error fetching university", err)
	}
	return mail.UniversityID, nil
}

// ByDomain looks a university up by mail domain, with or without the leading "@".
func (us *UniversityService) ByDomain(ctx context.Context, domain string) (*models.University, error) {
	domain = normalizeDomain(domain)
	if domain == "@" {
		return nil, Validation("universityDomain is required")
	}
	u, err := models.SelectOne[models.University](ctx, us.store, models.Query{
		Table:   models.UniversityTable,
		Columns: "university_id,name",
		Filters: []models.Filter{models.Eq("domain", domain)},
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, NotFound("University not found")
		}
		return nil, Upstream("Error fetching university", err)
	}
	return u, nil
}

// OtherUniversities lists every university except the given one.
func (us *UniversityService) OtherUniversities(ctx context.Context, universityID int64) ([]models.University, error) {
	return us.list(ctx, models.Neq("university_id", universityID))
}

func (us *UniversityService) University(ctx context.Context, universityID int64) ([]models.University, error) {
	return us.list(ctx, models.Eq("university_id", universityID))
}

func (us *UniversityService) list(ctx context.Context, filter models.Filter) ([]models.University, error) {
	var rows []models.University
	if err := us.store.Select(ctx, models.Query{
		Table:   models.UniversityTable,
		Columns: "university_id,name",
		Filters: []models.Filter{filter},
	}, &rows); err != nil {
		return nil, Upstream("Error fetching universities", err)
	}
	if len(rows) == 0 {
		return nil, NotFound("No universities found")
	}
	return rows, nil
}

// ContactsByUniversity lists the mails of a university except the active user's,
// each joined with its owner's profile and the university name.
func (us *UniversityService) ContactsByUniversity(ctx context.Context, universityID, activeUserID int64) ([]models.Contact, error) {
	var mails []models.Mail
	if err := us.store.Select(ctx, models.Query{
		Table:   models.MailTable,
		Columns: "Mail,university_id,user_id",
		Filters: []models.Filter{models.Eq("university_id", universityID), models.Neq("user_id", activeUserID)},
	}, &mails); err != nil {
		return nil, Upstream("Error fetching contacts", err)
	}
	if len(mails) == 0 {
		return nil, NotFound("Contacts not found")
	}

	profiles, err := userProfiles(ctx, us.store, Pluck(mails, func(m models.Mail) int64 { return m.UserID }))
	if err != nil {
		return nil, Upstream("Error fetching contacts", err)
	}

	var universityName string
	u, err := models.SelectOne[models.University](ctx, us.store, models.Query{
		Table:   models.UniversityTable,
		Columns: "name",
		Filters: []models.Filter{models.Eq("university_id", universityID)},
	})
	switch {
	case err == nil:
		universityName = u.Name
	case !errors.Is(err, models.ErrNotFound):
		return nil, Upstream("Error fetching contacts", err)
	}

	out := make([]models.Contact, 0, len(mails))
	for _, m := range mails {
		c := models.Contact{
			Mail:           m.Mail,
			UniversityID:   m.UniversityID,
			UserID:         m.UserID,
			UniversityName: universityName,
		}
		if p, ok := profiles[m.UserID]; ok {
			c.Username = p.Username
			c.ProfilePicture = p.Picture
		}
		out = append(out, c)
	}
	return out, nil
}

type profile struct {
	Username string
	IsAdmin  bool
	Picture  *string
}

// userProfiles resolves user ids to username and profile picture payload.
func userProfiles(ctx context.Context, store models.Store, userIDs []int64) (map[int64]profile, error) {
	var users []models.AppUser
	if err := store.Select(ctx, models.Query{
		Table:   models.AppUserTable,
		Columns: "user_id,username,is_admin,profile_picture",
		Filters: []models.Filter{models.In("user_id", Unique(userIDs))},
	}, &users); err != nil {
		return nil, err
	}

	var pictureIDs []int64
	for _, u := range users {
		if u.ProfilePicture != nil {
			pictureIDs = append(pictureIDs, *u.ProfilePicture)
		}
	}
	pictures, err := imageSources(ctx, store, pictureIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]profile, len(users))
	for _, u := range users {
		p := profile{Username: u.Username, IsAdmin: u.IsAdmin}
		if u.ProfilePicture != nil {
			if src, ok := pictures[*u.ProfilePicture]; ok {
				p.Picture = &src
			}
		}
		out[u.UserID] = p
	}
	return out, nil
}

// normalizeDomain makes sure a domain starts with "@". Case is kept because
// university.domain is compared exactly as stored.
func normalizeDomain(domain string) string {
	return "@" + strings.TrimPrefix(strings.TrimSpace(domain), "@")
}

// domainOf returns everything from the first "@" of an email address, or ""
// if there is no local part or no domain.
func domainOf(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ""
	}
	return email[at:]
}
