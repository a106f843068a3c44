// Package denylist suppresses capacity and product tags for offerings whose
// SKU is listed in the product denylist file.
package denylist

import (
	"strings"

	"github.com/smallbiznis/tally/internal/config"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("denylist",
	fx.Provide(New),
)

type file struct {
	Products []string `mapstructure:"products"`
}

type set map[string]struct{}

// Denylist answers whether an offering SKU is suppressed. The backing file is
// reloaded on change.
type Denylist struct {
	holder *config.FileHolder[set]
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

func New(p Params) (*Denylist, error) {
	holder, err := config.LoadFile(config.FileSource[set]{
		Path:     p.Config.DenylistPath,
		Defaults: set{},
		Decode:   decode,
		Optional: true,
		Watch:    true,
		Log:      p.Log.Named("denylist"),
	})
	if err != nil {
		return nil, err
	}
	return &Denylist{holder: holder}, nil
}

// NewStatic builds a denylist from a fixed SKU list.
func NewStatic(skus ...string) *Denylist {
	return &Denylist{holder: config.NewStaticHolder(newSet(skus))}
}

func decode(v *viper.Viper) (set, error) {
	var f file
	if err := v.Unmarshal(&f); err != nil {
		return nil, err
	}
	return newSet(f.Products), nil
}

func newSet(skus []string) set {
	out := make(set, len(skus))
	for _, sku := range skus {
		sku = strings.TrimSpace(sku)
		if sku == "" {
			continue
		}
		out[sku] = struct{}{}
	}
	return out
}

// ProductIDMatches reports whether sku is denylisted. Empty SKUs never match.
func (d *Denylist) ProductIDMatches(sku string) bool {
	if d == nil {
		return false
	}
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return false
	}
	_, ok := d.holder.Get()[sku]
	return ok
}

// Replace swaps the denylisted SKUs.
func (d *Denylist) Replace(skus ...string) {
	d.holder.Store(newSet(skus))
}

func (d *Denylist) Len() int {
	return len(d.holder.Get())
}
