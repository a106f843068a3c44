package config

import (
	"errors"
	"io/fs"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// FileHolder keeps the latest valid decoding of a YAML file. Reloads that
// fail to decode or validate are ignored and the previous value is kept.
type FileHolder[T any] struct {
	current atomic.Value // holds T
	path    string
}

// FileSource describes how a watched file is decoded.
type FileSource[T any] struct {
	Path     string
	Defaults T
	Decode   func(v *viper.Viper) (T, error)
	Validate func(T) error
	// Optional files fall back to Defaults when missing.
	Optional bool
	Watch    bool
	Log      *zap.Logger
}

// LoadFile reads src.Path and, when src.Watch is set, hot reloads it on change.
func LoadFile[T any](src FileSource[T]) (*FileHolder[T], error) {
	log := src.Log
	if log == nil {
		log = zap.NewNop()
	}

	v := viper.New()
	v.SetConfigFile(src.Path)
	v.SetConfigType("yaml")

	holder := &FileHolder[T]{path: src.Path}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !(errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)) || !src.Optional {
			return nil, err
		}
		log.Info("config file not found, using defaults", zap.String("path", src.Path))
		holder.current.Store(src.Defaults)
		return holder, nil
	}

	cfg, err := src.Decode(v)
	if err != nil {
		return nil, err
	}
	if src.Validate != nil {
		if err := src.Validate(cfg); err != nil {
			return nil, err
		}
	}
	holder.current.Store(cfg)

	if src.Watch {
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := src.Decode(v)
			if err != nil {
				log.Warn("config reload failed", zap.String("path", e.Name), zap.Error(err))
				return
			}
			if src.Validate != nil {
				if err := src.Validate(updated); err != nil {
					log.Warn("invalid config ignored", zap.String("path", e.Name), zap.Error(err))
					return
				}
			}
			holder.current.Store(updated)
			log.Info("config reloaded", zap.String("path", e.Name))
		})
		v.WatchConfig()
	}

	return holder, nil
}

// NewStaticHolder wraps a fixed value, mostly for tests.
func NewStaticHolder[T any](value T) *FileHolder[T] {
	holder := &FileHolder[T]{}
	holder.current.Store(value)
	return holder
}

func (h *FileHolder[T]) Get() T {
	return h.current.Load().(T)
}

// Store replaces the held value.
func (h *FileHolder[T]) Store(value T) {
	h.current.Store(value)
}

func (h *FileHolder[T]) Path() string {
	return h.path
}
