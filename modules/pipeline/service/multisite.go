package service

import (
	"context"

	extractmodel "github.com/andreypavlenko/autoapply/modules/extractor/model"
)

// multiSiteExtractor chains per-site extractors sequentially: they share
// one browser session, so concurrency is off the table by design.
type multiSiteExtractor []Extractor

// MultiSiteExtractor combines per-site extractors into one Extractor
func MultiSiteExtractor(extractors []Extractor) Extractor {
	return multiSiteExtractor(extractors)
}

func (m multiSiteExtractor) Extract(ctx context.Context, keywords []string) (*extractmodel.ExtractStats, error) {
	total := &extractmodel.ExtractStats{}
	for _, e := range m {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		stats, err := e.Extract(ctx, keywords)
		if stats != nil {
			for _, ks := range stats.Keywords {
				total.Add(ks)
			}
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
