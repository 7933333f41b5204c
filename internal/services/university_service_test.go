package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshua-takyi/studenthub/internal/models"
	"github.com/joshua-takyi/studenthub/internal/models/memstore"
)

func seedUniversities(store *memstore.Store) {
	store.Seed(models.UniversityTable,
		models.University{UniversityID: 1, Name: "UM", Domain: "@um.edu.uy", Latitud: ptr(-34.9), Longitud: ptr(-56.1)},
		models.University{UniversityID: 2, Name: "ORT", Domain: "@ort.edu.uy"},
		models.University{UniversityID: 3, Name: "UdelaR"},
	)
	store.Seed(models.ImageTable, models.Image{ID: 50, Base64Image: "ana-face"})
	store.Seed(models.AppUserTable,
		models.AppUser{UserID: 1, Username: "ana", ProfilePicture: ptr(int64(50))},
		models.AppUser{UserID: 2, Username: "beto"},
	)
	store.Seed(models.MailTable,
		models.Mail{Mail: "ana@um.edu.uy", UniversityID: 1, UserID: 1, IsPrimary: true, IsVerified: true},
		models.Mail{Mail: "ana@ort.edu.uy", UniversityID: 2, UserID: 1, IsVerified: true},
		models.Mail{Mail: "beto@um.edu.uy", UniversityID: 1, UserID: 2, IsPrimary: true, IsVerified: true},
	)
}

func TestDomains(t *testing.T) {
	store := newStore()
	seedUniversities(store)
	svc := NewUniversityService(store)

	domains, err := svc.Domains(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"@um.edu.uy", "@ort.edu.uy"}, domains)

	_, err = NewUniversityService(newStore()).Domains(context.Background())
	requireKind(t, err, KindNotFound, "Domains not found")
}

func TestCoordinates(t *testing.T) {
	store := newStore()
	seedUniversities(store)
	svc := NewUniversityService(store)

	coords, err := svc.Coordinates(context.Background(), 1)
	require.NoError(t, err)
	assert.InDelta(t, -34.9, *coords.Latitud, 1e-9)
	assert.InDelta(t, -56.1, *coords.Longitud, 1e-9)

	coords, err = svc.Coordinates(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, coords.Latitud)

	_, err = svc.Coordinates(context.Background(), 42)
	requireKind(t, err, KindNotFound, "")
}

func TestMyUniversityPrefersPrimary(t *testing.T) {
	store := newStore()
	seedUniversities(store)
	svc := NewUniversityService(store)

	id, err := svc.MyUniversity(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = svc.MyUniversity(context.Background(), 77)
	requireKind(t, err, KindNotFound, "")
}

func TestByDomain(t *testing.T) {
	store := newStore()
	seedUniversities(store)
	svc := NewUniversityService(store)

	for _, domain := range []string{"ort.edu.uy", "@ort.edu.uy", " @ort.edu.uy "} {
		u, err := svc.ByDomain(context.Background(), domain)
		require.NoError(t, err, domain)
		assert.Equal(t, int64(2), u.UniversityID)
		assert.Equal(t, "ORT", u.Name)
	}

	_, err := svc.ByDomain(context.Background(), "gmail.com")
	requireKind(t, err, KindNotFound, "University not found")

	_, err = svc.ByDomain(context.Background(), "ORT.edu.uy")
	requireKind(t, err, KindNotFound, "University not found")

	_, err = svc.ByDomain(context.Background(), "")
	requireKind(t, err, KindValidation, "")
}

func TestOtherUniversitiesAndUniversity(t *testing.T) {
	store := newStore()
	seedUniversities(store)
	svc := NewUniversityService(store)
	ctx := context.Background()

	others, err := svc.OtherUniversities(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{2, 3}, Pluck(others, func(u models.University) int64 { return u.UniversityID }))

	one, err := svc.University(ctx, 3)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "UdelaR", one[0].Name)

	_, err = svc.University(ctx, 9)
	requireKind(t, err, KindNotFound, "No universities found")
}

func TestContactsByUniversity(t *testing.T) {
	store := newStore()
	seedUniversities(store)
	svc := NewUniversityService(store)
	ctx := context.Background()

	contacts, err := svc.ContactsByUniversity(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	c := contacts[0]
	assert.Equal(t, "ana@um.edu.uy", c.Mail)
	assert.Equal(t, "ana", c.Username)
	assert.Equal(t, "UM", c.UniversityName)
	require.NotNil(t, c.ProfilePicture)
	assert.Equal(t, "ana-face", *c.ProfilePicture)

	contacts, err = svc.ContactsByUniversity(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "beto", contacts[0].Username)
	assert.Nil(t, contacts[0].ProfilePicture)

	_, err = svc.ContactsByUniversity(ctx, 3, 1)
	requireKind(t, err, KindNotFound, "Contacts not found")
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "@UM.edu.uy", domainOf("ana@UM.edu.uy"))
	assert.Equal(t, "@b@c.edu", domainOf("a@b@c.edu"))
	assert.Equal(t, "", domainOf("ana"))
	assert.Equal(t, "", domainOf("@um.edu.uy"))
	assert.Equal(t, "", domainOf("ana@"))
}
