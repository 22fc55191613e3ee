package scraper

import (
	"log/slog"
	"time"
)

// DefaultPortals is the portal set searched when the caller names none.
// LinkedIn is opt-in.
var DefaultPortals = []string{
	PortalIndeed,
	PortalStepStone,
	PortalXing,
	PortalMonster,
	PortalArbeitsagentur,
}

// NewAdapters returns one adapter per supported portal, sharing ext.
func NewAdapters(ext *Extractor) []Adapter {
	return []Adapter{
		NewIndeed(ext),
		NewStepStone(ext),
		NewXing(ext),
		NewMonster(ext),
		NewArbeitsagentur(ext),
		NewLinkedIn(ext),
	}
}

// New wires an Aggregator over every supported portal.
func New(fetcher Fetcher, logger *slog.Logger) *Aggregator {
	driver := NewDriver(fetcher, logger)
	return NewAggregator(driver, logger, NewAdapters(NewExtractor(time.Now))...)
}

// WithDefaults fills in the portal set and page cap a caller left empty.
func (q Query) WithDefaults(maxPages int) Query {
	if len(q.Portals) == 0 {
		q.Portals = append([]string(nil), DefaultPortals...)
	}
	if q.MaxPages == 0 {
		q.MaxPages = maxPages
	}
	return q
}
