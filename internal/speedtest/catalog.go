package speedtest

// Source is one known download test file.
type Source struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Provider  string `json:"provider"`
	SizeBytes int64  `json:"size_bytes"`
}

// Catalog holds the download test files a user preference may reference.
type Catalog struct {
	sources []Source
}

func NewCatalog(sources ...Source) *Catalog {
	return &Catalog{sources: sources}
}

func DefaultCatalog() *Catalog {
	return NewCatalog(
		Source{
			ID:        "hetzner-10mb",
			Name:      "Hetzner 10MB",
			URL:       "https://speed.hetzner.de/10MB.bin",
			Provider:  "hetzner",
			SizeBytes: 10 * 1024 * 1024,
		},
		Source{
			ID:        "hetzner-100mb",
			Name:      "Hetzner 100MB",
			URL:       "https://speed.hetzner.de/100MB.bin",
			Provider:  "hetzner",
			SizeBytes: 100 * 1024 * 1024,
		},
		Source{
			ID:        "hetzner-1gb",
			Name:      "Hetzner 1GB",
			URL:       "https://speed.hetzner.de/1GB.bin",
			Provider:  "hetzner",
			SizeBytes: 1024 * 1024 * 1024,
		},
	)
}

func (c *Catalog) Lookup(id string) (Source, bool) {
	for _, s := range c.sources {
		if s.ID == id {
			return s, true
		}
	}
	return Source{}, false
}

func (c *Catalog) Sources() []Source {
	out := make([]Source, len(c.sources))
	copy(out, c.sources)
	return out
}
