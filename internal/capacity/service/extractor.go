package service

import (
	"github.com/smallbiznis/tally/internal/tagprofile"
)

// ProductExtractor resolves the product tags an offering grants.
type ProductExtractor struct {
	profile tagprofile.Lookup
}

func NewProductExtractor(profile tagprofile.Lookup) *ProductExtractor {
	return &ProductExtractor{profile: profile}
}

// Products maps engineering product ids to tags. Unmapped ids are ignored and
// the result is sorted and free of duplicates.
func (e *ProductExtractor) Products(ids []int) []string {
	if e == nil || e.profile == nil || len(ids) == 0 {
		return nil
	}
	return e.profile.TagsForEngineeringIDs(ids)
}
