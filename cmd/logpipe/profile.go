package main

import (
	"maps"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/pkg/profile"
)

var profileModes = map[string]func(*profile.Profile){
	"block":     profile.BlockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"trace":     profile.TraceProfile,
}

type profiling struct {
	Mode string `default:""        enum:",${profileModes}" help:"Write a profile of this kind." placeholder:"${enum}"`
	Dir  string `default:"profile" help:"Profile output directory."                             type:"path"`
}

func (profiling) vars() kong.Vars {
	return kong.Vars{
		"profileModes": strings.Join(slices.Sorted(maps.Keys(profileModes)), ","),
	}
}

func (profiling) group() kong.Group {
	return kong.Group{Key: "profile", Title: "Profiling"}
}

// start begins profiling when a mode is set. The returned function stops it.
func (p profiling) start() (stop func()) {
	mode, ok := profileModes[p.Mode]
	if !ok {
		return func() {}
	}
	prof := profile.Start(mode, profile.ProfilePath(p.Dir), profile.Quiet, profile.NoShutdownHook)
	return prof.Stop
}
