package tagprofile

import (
	"github.com/smallbiznis/tally/internal/config"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("tagprofile",
	fx.Provide(New),
	fx.Provide(func(s *Store) Lookup { return s }),
)

// Lookup is the read side used by reconciliation, termination and metering.
type Lookup interface {
	OfferingProductNamesForTag(tag string) []string
	TagForOfferingProductName(name string) string
	IsProductPAYGEligible(tag string) bool
	TagsForEngineeringIDs(ids []int) []string
	MetricQueryKey(tag string) string
}

type file struct {
	Tags []TagDefinition `mapstructure:"tags"`
}

// Store serves the current profile and reloads it when the file changes.
type Store struct {
	holder *config.FileHolder[*Profile]
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

func New(p Params) (*Store, error) {
	empty, _ := NewProfile(nil)
	holder, err := config.LoadFile(config.FileSource[*Profile]{
		Path:     p.Config.TagProfilePath,
		Defaults: empty,
		Decode:   decode,
		Optional: true,
		Watch:    true,
		Log:      p.Log.Named("tagprofile"),
	})
	if err != nil {
		return nil, err
	}
	return &Store{holder: holder}, nil
}

// NewStatic wraps a fixed profile.
func NewStatic(profile *Profile) *Store {
	return &Store{holder: config.NewStaticHolder(profile)}
}

func decode(v *viper.Viper) (*Profile, error) {
	var f file
	if err := v.Unmarshal(&f); err != nil {
		return nil, err
	}
	return NewProfile(f.Tags)
}

func (s *Store) Current() *Profile {
	return s.holder.Get()
}

func (s *Store) OfferingProductNamesForTag(tag string) []string {
	return s.Current().OfferingProductNamesForTag(tag)
}

func (s *Store) TagForOfferingProductName(name string) string {
	return s.Current().TagForOfferingProductName(name)
}

func (s *Store) IsProductPAYGEligible(tag string) bool {
	return s.Current().IsProductPAYGEligible(tag)
}

func (s *Store) TagsForEngineeringIDs(ids []int) []string {
	return s.Current().TagsForEngineeringIDs(ids)
}

func (s *Store) MetricQueryKey(tag string) string {
	return s.Current().MetricQueryKey(tag)
}
