package locations

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
)

// SingleRecordID identifies the one record emitted in single mode.
const SingleRecordID = "business"

// Backend reads and persists a Source.
type Backend interface {
	Read(ctx context.Context) (Source, error)
	Write(ctx context.Context, src Source) error
}

// Site describes the website the locations belong to.
type Site struct {
	URL           string
	Name          string
	Description   string
	PermalinkBase string
}

// Repository normalizes a Backend's Source into LocationRecords.
type Repository struct {
	site    Site
	backend Backend
	logger  *slog.Logger

	mu sync.Mutex // serializes read-modify-write in SaveResolution
}

func NewRepository(site Site, backend Backend, logger *slog.Logger) *Repository {
	return &Repository{site: site, backend: backend, logger: logger}
}

// Load reads the source fresh and returns its records in source order.
func (r *Repository) Load(ctx context.Context) ([]domain.LocationRecord, domain.Mode, error) {
	src, err := r.backend.Read(ctx)
	if err != nil {
		return nil, "", eris.Wrap(err, "locations: read source")
	}
	if err := src.Validate(); err != nil {
		return nil, "", err
	}

	if src.Single != nil {
		return []domain.LocationRecord{r.singleRecord(*src.Single)}, domain.ModeSingle, nil
	}

	records := make([]domain.LocationRecord, 0, len(src.Entities))
	seen := make(map[string]bool, len(src.Entities))
	for i, e := range src.Entities {
		id := entityID(e)
		if id == "" {
			r.logger.Warn("skipping location without id or slug", "index", i, "title", e.Title)
			continue
		}
		if seen[id] {
			r.logger.Warn("skipping location with duplicate id", "id", id, "index", i)
			continue
		}
		seen[id] = true
		records = append(records, r.entityRecord(id, e))
	}
	return records, domain.ModeMulti, nil
}

// SaveResolution stores coords on the record with the given ID. Saving the
// coordinates the record already has is a no-op.
func (r *Repository) SaveResolution(ctx context.Context, recordID string, coords domain.Coordinates) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, err := r.backend.Read(ctx)
	if err != nil {
		return eris.Wrap(err, "locations: read source for write-back")
	}

	changed, found := false, false
	if src.Single != nil {
		if recordID == SingleRecordID {
			found = true
			changed = setCoordinates(&src.Single.Latitude, &src.Single.Longitude, coords)
		}
	} else {
		for i := range src.Entities {
			if entityID(src.Entities[i]) == recordID {
				found = true
				changed = setCoordinates(&src.Entities[i].Latitude, &src.Entities[i].Longitude, coords)
				break
			}
		}
	}

	if !found {
		return eris.Errorf("locations: no record with id %q", recordID)
	}
	if !changed {
		return nil
	}
	return eris.Wrapf(r.backend.Write(ctx, src), "locations: write back %q", recordID)
}

func (r *Repository) singleRecord(b BusinessConfig) domain.LocationRecord {
	link := b.URL
	if link == "" {
		link = r.homeURL()
	}
	return domain.LocationRecord{
		ID:          SingleRecordID,
		Name:        b.Name,
		Address:     b.Address,
		City:        b.City,
		State:       b.State,
		Zipcode:     b.Zipcode,
		Country:     r.country(SingleRecordID, b.Country),
		Phone:       b.Phone,
		Phone2:      b.Phone2,
		Fax:         b.Fax,
		Email:       b.Email,
		URL:         link,
		Description: siteDescription(r.site.Name, r.site.Description),
		Coordinates: domain.NewCoordinates(b.Latitude, b.Longitude),
	}
}

func (r *Repository) entityRecord(id string, e Entity) domain.LocationRecord {
	link := e.URL
	if link == "" {
		slug := e.Slug
		if slug == "" {
			slug = id
		}
		link = r.permalink(slug)
	}
	description := e.Excerpt
	if strings.TrimSpace(description) == "" {
		description = e.Content
	}
	return domain.LocationRecord{
		ID:          id,
		Name:        e.Title,
		Address:     e.Address,
		City:        e.City,
		State:       e.State,
		Zipcode:     e.Zipcode,
		Country:     r.country(id, e.Country),
		Phone:       e.Phone,
		Phone2:      e.Phone2,
		Fax:         e.Fax,
		Email:       e.Email,
		URL:         link,
		Description: description,
		Coordinates: domain.NewCoordinates(e.Latitude, e.Longitude),
	}
}

// country normalizes code, dropping codes that are not in the country table.
func (r *Repository) country(recordID, code string) string {
	if strings.TrimSpace(code) == "" {
		return ""
	}
	normalized, ok := domain.NormalizeCountry(code)
	if !ok {
		r.logger.Warn("dropping unknown country code", "record", recordID, "country", code)
		return ""
	}
	return normalized
}

func (r *Repository) homeURL() string {
	return strings.TrimRight(r.site.URL, "/") + "/"
}

func (r *Repository) permalink(slug string) string {
	parts := []string{strings.TrimRight(r.site.URL, "/")}
	if base := strings.Trim(r.site.PermalinkBase, "/"); base != "" {
		parts = append(parts, base)
	}
	parts = append(parts, url.PathEscape(slug))
	return strings.Join(parts, "/") + "/"
}

func entityID(e Entity) string {
	if id := strings.TrimSpace(e.ID); id != "" {
		return id
	}
	return strings.TrimSpace(e.Slug)
}

func siteDescription(name, tagline string) string {
	name, tagline = strings.TrimSpace(name), strings.TrimSpace(tagline)
	switch {
	case name == "":
		return tagline
	case tagline == "":
		return name
	}
	return name + " - " + tagline
}
