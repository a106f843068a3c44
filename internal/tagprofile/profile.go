// Package tagprofile maps catalog products to the product tags used by
// capacity reconciliation and metering.
package tagprofile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

var ErrDuplicateTag = errors.New("duplicate_product_tag")

// TagDefinition describes one product tag.
type TagDefinition struct {
	Tag                  string   `mapstructure:"tag"`
	OfferingProductNames []string `mapstructure:"offeringProductNames"`
	EngineeringIDs       []int    `mapstructure:"engineeringIds"`
	PaygEligible         bool     `mapstructure:"paygEligible"`
	// MetricQueryKey selects the PromQL template used when metering this tag.
	MetricQueryKey string `mapstructure:"metricQueryKey"`
}

// Profile is an immutable, indexed view over the tag definitions.
type Profile struct {
	definitions []TagDefinition
	byTag       map[string]TagDefinition
	tagByName   map[string]string
	tagsByEngID map[int][]string
}

// NewProfile indexes definitions. Tags must be unique and non-empty.
func NewProfile(definitions []TagDefinition) (*Profile, error) {
	p := &Profile{
		byTag:       make(map[string]TagDefinition, len(definitions)),
		tagByName:   map[string]string{},
		tagsByEngID: map[int][]string{},
	}
	for _, def := range definitions {
		def.Tag = strings.TrimSpace(def.Tag)
		if def.Tag == "" {
			return nil, errors.New("product tag cannot be empty")
		}
		if _, ok := p.byTag[def.Tag]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTag, def.Tag)
		}
		p.byTag[def.Tag] = def
		p.definitions = append(p.definitions, def)
		for _, name := range def.OfferingProductNames {
			p.tagByName[strings.TrimSpace(name)] = def.Tag
		}
		for _, id := range def.EngineeringIDs {
			p.tagsByEngID[id] = append(p.tagsByEngID[id], def.Tag)
		}
	}
	return p, nil
}

// OfferingProductNamesForTag returns the catalog product names that belong to tag.
func (p *Profile) OfferingProductNamesForTag(tag string) []string {
	def, ok := p.byTag[tag]
	if !ok {
		return nil
	}
	return append([]string(nil), def.OfferingProductNames...)
}

// TagForOfferingProductName returns "" when the name is unmapped.
func (p *Profile) TagForOfferingProductName(name string) string {
	return p.tagByName[strings.TrimSpace(name)]
}

func (p *Profile) IsProductPAYGEligible(tag string) bool {
	return p.byTag[tag].PaygEligible
}

// TagsForEngineeringIDs unions the tags of every id. Unmapped ids are ignored.
// The result is sorted.
func (p *Profile) TagsForEngineeringIDs(ids []int) []string {
	tags := lo.Uniq(lo.FlatMap(ids, func(id int, _ int) []string {
		return p.tagsByEngID[id]
	}))
	sort.Strings(tags)
	return tags
}

// MetricQueryKey returns the configured template key, or "" if none.
func (p *Profile) MetricQueryKey(tag string) string {
	return p.byTag[tag].MetricQueryKey
}

func (p *Profile) Tags() []string {
	return lo.Map(p.definitions, func(d TagDefinition, _ int) string { return d.Tag })
}
